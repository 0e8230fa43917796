package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"phineas/internal/adapters/storage/sqlite/migrations"
	"phineas/internal/core/domain"
	"phineas/internal/core/ports"
)

// DefaultFilename nombre del fichero de base de datos dentro del directorio de datos.
const DefaultFilename = "history.db"

// Store guarda el historial de ejecuciones en SQLite.
type Store struct {
	db   *sql.DB
	path string
}

var _ ports.RunRepository = (*Store)(nil)

// NewStore abre (o crea) la base de datos en dataDir.
// Si dataDir está vacío usa ~/.phineas.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".phineas")
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return Open(filepath.Join(dataDir, DefaultFilename))
}

// Open abre la base de datos en dbPath y aplica las migraciones pendientes.
func Open(dbPath string) (*Store, error) {
	// WAL mode for concurrent readers
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps PRAGMAs and writes consistent
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close cierra la conexión.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path retorna la ruta del fichero de base de datos.
func (s *Store) Path() string {
	return s.path
}

// migrate ejecuta las migraciones NNN_*.up.sql con versión mayor que la aplicada.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
			version, time.Now().UTC().Format(time.RFC3339)); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// SaveRun guarda (o reemplaza) una ejecución y sus pasos.
func (s *Store) SaveRun(ctx context.Context, run *domain.WorkflowRun) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("saving run: %w", domain.ErrInvalidWorkflow)
	}

	report, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshalling run: %w", err)
	}

	successful, failed := run.CountByStatus()
	findings := 0
	for _, n := range run.Summary.Counts {
		findings += n
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, target, target_kind, workflow, start_time, end_time, successful, failed, findings, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			target = excluded.target,
			target_kind = excluded.target_kind,
			workflow = excluded.workflow,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			successful = excluded.successful,
			failed = excluded.failed,
			findings = excluded.findings,
			report = excluded.report
	`, run.ID, run.Target.Value, string(run.Target.Kind), run.Workflow,
		formatTime(run.StartTime), formatTime(run.EndTime),
		successful, failed, findings, string(report))
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM run_steps WHERE run_id = ?", run.ID); err != nil {
		return fmt.Errorf("clearing run steps: %w", err)
	}
	for _, sr := range run.Results {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_steps (run_id, step_index, collector, status, error, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?)
		`, run.ID, sr.Index, sr.Collector, string(sr.Result.Status), sr.Result.Error, sr.Result.Duration().Milliseconds())
		if err != nil {
			return fmt.Errorf("saving run step %s: %w", sr.Collector, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

// GetRun recupera una ejecución completa por ID.
func (s *Store) GetRun(ctx context.Context, id string) (*domain.WorkflowRun, error) {
	var report string
	err := s.db.QueryRowContext(ctx, "SELECT report FROM runs WHERE id = ?", id).Scan(&report)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting run: %w", err)
	}

	var run domain.WorkflowRun
	if err := json.Unmarshal([]byte(report), &run); err != nil {
		return nil, fmt.Errorf("unmarshalling run %s: %w", id, err)
	}
	return &run, nil
}

// ListRuns lista ejecuciones de la más reciente a la más antigua.
func (s *Store) ListRuns(ctx context.Context, filter ports.RunFilter) ([]ports.RunRecord, error) {
	query := `SELECT id, target, target_kind, workflow, start_time, end_time, successful, failed, findings FROM runs`
	var where []string
	var args []any

	if filter.Target != "" {
		where = append(where, "target = ?")
		args = append(args, filter.Target)
	}
	if filter.Workflow != "" {
		where = append(where, "workflow = ?")
		args = append(args, filter.Workflow)
	}
	if !filter.Since.IsZero() {
		where = append(where, "start_time >= ?")
		args = append(args, formatTime(filter.Since))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY start_time DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []ports.RunRecord
	for rows.Next() {
		var rec ports.RunRecord
		var kind, start, end string
		if err := rows.Scan(&rec.ID, &rec.Target, &kind, &rec.Workflow, &start, &end,
			&rec.Successful, &rec.Failed, &rec.Findings); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		rec.TargetKind = domain.TargetKind(kind)
		rec.StartTime = parseTime(start)
		rec.EndTime = parseTime(end)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteRun elimina una ejecución y sus pasos.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrRunNotFound, id)
	}
	return nil
}

// CollectorStats agrega los pasos guardados por colector.
type CollectorStats struct {
	Collector     string
	Runs          int
	Failures      int
	AvgDurationMS int64
}

// CollectorStats retorna estadísticas de fiabilidad por colector, ordenadas por nombre.
func (s *Store) CollectorStats(ctx context.Context) ([]CollectorStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT collector,
		       COUNT(*),
		       SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END),
		       CAST(AVG(duration_ms) AS INTEGER)
		FROM run_steps
		GROUP BY collector
		ORDER BY collector
	`)
	if err != nil {
		return nil, fmt.Errorf("collector stats: %w", err)
	}
	defer rows.Close()

	var out []CollectorStats
	for rows.Next() {
		var st CollectorStats
		if err := rows.Scan(&st.Collector, &st.Runs, &st.Failures, &st.AvgDurationMS); err != nil {
			return nil, fmt.Errorf("scanning collector stats: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
