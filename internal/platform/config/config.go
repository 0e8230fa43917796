// internal/platform/config/config.go
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"phineas/internal/core/domain"
)

// EnvPrefix es el prefijo de todas las variables de entorno de phineas.
const EnvPrefix = "PHINEAS_"

type Config struct {
	// App
	OutputDir string `yaml:"output_dir" toml:"output_dir"`
	Workers   int    `yaml:"concurrent_scans" toml:"concurrent_scans"`
	TimeoutS  int    `yaml:"timeout" toml:"timeout"` // timeout por colector en segundos
	Strict    bool   `yaml:"strict" toml:"strict"`   // colectores desconocidos invalidan el workflow
	Quiet     bool   `yaml:"quiet" toml:"quiet"`
	LogLevel  string `yaml:"log_level" toml:"log_level"`

	// Retries (retry_failed / max_retries)
	RetryFailed bool       `yaml:"retry_failed" toml:"retry_failed"`
	MaxRetries  int        `yaml:"max_retries" toml:"max_retries"`
	Resilience  Resilience `yaml:"resilience" toml:"resilience"`

	// APIKeys servicio -> clave. Las variables PHINEAS_<SERVICE>_API_KEY tienen prioridad.
	APIKeys map[string]string `yaml:"api_keys" toml:"api_keys"`

	// Collectors configuración global por colector (se combina con la de cada paso)
	Collectors map[string]map[string]any `yaml:"collectors" toml:"collectors"`

	// Plugins nombre heredado de Collectors; se fusiona en normalize
	Plugins map[string]map[string]any `yaml:"plugins,omitempty" toml:"plugins,omitempty"`

	// Workflows definidos por el usuario (<dir>/<name>.yaml)
	WorkflowsDir string `yaml:"workflows_dir" toml:"workflows_dir"`

	// History base de datos SQLite del historial ("" = desactivado)
	HistoryDB string `yaml:"history_db" toml:"history_db"`

	// File ruta del fichero de configuración cargado (si hubo)
	File string `yaml:"-" toml:"-"`
}

type Resilience struct {
	BackoffBaseMS     int     `yaml:"backoff_base_ms" toml:"backoff_base_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier" toml:"backoff_multiplier"`

	// Circuit Breaker configuration
	CircuitBreakerEnabled   bool `yaml:"circuit_breaker" toml:"circuit_breaker"`
	CircuitBreakerThreshold int  `yaml:"circuit_breaker_threshold" toml:"circuit_breaker_threshold"`
	CircuitBreakerTimeoutS  int  `yaml:"circuit_breaker_timeout" toml:"circuit_breaker_timeout"`
	CircuitBreakerHalfOpen  int  `yaml:"circuit_breaker_half_open" toml:"circuit_breaker_half_open"`
}

// DefaultConfig retorna una configuración por defecto.
func DefaultConfig() Config {
	return Config{
		OutputDir: "./phineas-results",
		Workers:   5,
		TimeoutS:  300,
		LogLevel:  "info",

		RetryFailed: true,
		MaxRetries:  2,
		Resilience: Resilience{
			BackoffBaseMS:           1000,
			BackoffMultiplier:       2.0,
			CircuitBreakerEnabled:   true,
			CircuitBreakerThreshold: 5,
			CircuitBreakerTimeoutS:  60,
			CircuitBreakerHalfOpen:  1,
		},

		APIKeys:    map[string]string{},
		Collectors: map[string]map[string]any{},

		WorkflowsDir: "",
		HistoryDB:    "",
	}
}

// Load inicializa la configuración: defaults -> fichero -> ENV -> FLAGS (flags tienen prioridad).
// path vacío usa PHINEAS_CONFIG; sin fichero solo se aplican ENV y flags.
// fs puede ser nil; solo se aplican flags marcados como Changed.
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = getenv(EnvPrefix+"CONFIG", "")
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return cfg, err
		}
		cfg.File = path
	}

	// Cargar desde ENV
	loadFromEnv(&cfg)

	// Flags (overrides ENV)
	if fs != nil {
		if err := loadFromFlags(fs, &cfg); err != nil {
			return cfg, err
		}
	}

	// Normalizar
	normalize(&cfg)

	return cfg, nil
}

// loadFromFile decodifica YAML (.yaml/.yml) o TOML (.toml) según la extensión.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConfigLoadFailed, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrInvalidConfig, path, err)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(cfg); err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrInvalidConfig, path, err)
		}
	default:
		return fmt.Errorf("%w: config file %s (use .yaml, .yml or .toml)", domain.ErrUnsupportedFormat, path)
	}
	return nil
}

// loadFromEnv carga configuración desde variables de entorno.
func loadFromEnv(cfg *Config) {
	if v := getenv(EnvPrefix+"OUTPUT_DIR", ""); v != "" {
		cfg.OutputDir = v
	}
	if v := getenv(EnvPrefix+"WORKERS", ""); v != "" {
		cfg.Workers = parseInt(v, cfg.Workers)
	}
	if v := getenv(EnvPrefix+"TIMEOUT", ""); v != "" {
		cfg.TimeoutS = parseInt(v, cfg.TimeoutS)
	}
	if v := getenv(EnvPrefix+"STRICT", ""); v != "" {
		cfg.Strict = parseBool(v)
	}
	if v := getenv(EnvPrefix+"LOG_LEVEL", ""); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv(EnvPrefix+"RETRY_FAILED", ""); v != "" {
		cfg.RetryFailed = parseBool(v)
	}
	if v := getenv(EnvPrefix+"MAX_RETRIES", ""); v != "" {
		cfg.MaxRetries = parseInt(v, cfg.MaxRetries)
	}
	if v := getenv(EnvPrefix+"WORKFLOWS_DIR", ""); v != "" {
		cfg.WorkflowsDir = v
	}
	if v := getenv(EnvPrefix+"HISTORY_DB", ""); v != "" {
		cfg.HistoryDB = v
	}

	// API keys: PHINEAS_<SERVICE>_API_KEY=... -> api_keys[<service>]
	if cfg.APIKeys == nil {
		cfg.APIKeys = map[string]string{}
	}
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || value == "" || !strings.HasPrefix(key, EnvPrefix) || !strings.HasSuffix(key, "_API_KEY") {
			continue
		}
		service := strings.TrimSuffix(strings.TrimPrefix(key, EnvPrefix), "_API_KEY")
		if service == "" {
			continue
		}
		cfg.APIKeys[strings.ToLower(service)] = value
	}
}

// RegisterFlags declara los flags de configuración en fs.
func RegisterFlags(fs *pflag.FlagSet) {
	def := DefaultConfig()
	fs.StringP("config", "c", "", "Fichero de configuración (.yaml, .yml o .toml)")
	fs.StringP("out", "o", def.OutputDir, "Directorio de salida de informes")
	fs.IntP("workers", "w", def.Workers, "Colectores concurrentes por workflow")
	fs.IntP("timeout", "T", def.TimeoutS, "Timeout por colector en segundos")
	fs.Bool("strict", def.Strict, "Fallar el workflow si referencia colectores desconocidos")
	fs.BoolP("quiet", "q", false, "Desactivar la salida interactiva")
	fs.String("log-level", def.LogLevel, "Nivel de log (debug, info, warn, error)")
	fs.Bool("retry", def.RetryFailed, "Reintentar colectores fallidos")
	fs.Int("max-retries", def.MaxRetries, "Número máximo de reintentos por colector")
	fs.String("workflows-dir", def.WorkflowsDir, "Directorio de workflows YAML personalizados")
	fs.String("history-db", def.HistoryDB, "Base de datos SQLite del historial (vacío = desactivado)")
}

// loadFromFlags aplica los flags que el usuario fijó explícitamente.
func loadFromFlags(fs *pflag.FlagSet, cfg *Config) error {
	var errs []string
	fs.Visit(func(f *pflag.Flag) {
		var err error
		switch f.Name {
		case "out":
			cfg.OutputDir, err = fs.GetString(f.Name)
		case "workers":
			cfg.Workers, err = fs.GetInt(f.Name)
		case "timeout":
			cfg.TimeoutS, err = fs.GetInt(f.Name)
		case "strict":
			cfg.Strict, err = fs.GetBool(f.Name)
		case "quiet":
			cfg.Quiet, err = fs.GetBool(f.Name)
		case "log-level":
			cfg.LogLevel, err = fs.GetString(f.Name)
		case "retry":
			cfg.RetryFailed, err = fs.GetBool(f.Name)
		case "max-retries":
			cfg.MaxRetries, err = fs.GetInt(f.Name)
		case "workflows-dir":
			cfg.WorkflowsDir, err = fs.GetString(f.Name)
		case "history-db":
			cfg.HistoryDB, err = fs.GetString(f.Name)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("--%s: %v", f.Name, err))
		}
	})
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}

func normalize(c *Config) {
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.TimeoutS <= 0 {
		c.TimeoutS = DefaultConfig().TimeoutS
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultConfig().OutputDir
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.Resilience.BackoffBaseMS < 0 {
		c.Resilience.BackoffBaseMS = 1000
	}
	if c.Resilience.BackoffMultiplier < 1.0 {
		c.Resilience.BackoffMultiplier = 2.0
	}
	if c.APIKeys == nil {
		c.APIKeys = map[string]string{}
	}
	if c.Collectors == nil {
		c.Collectors = map[string]map[string]any{}
	}
	for name, pc := range c.Plugins {
		if _, ok := c.Collectors[name]; !ok {
			c.Collectors[name] = pc
		}
	}
	c.Plugins = nil
}

// Timeout devuelve el timeout por colector como time.Duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutS) * time.Second
}

// BackoffBase devuelve la espera inicial entre reintentos.
func (c Config) BackoffBase() time.Duration {
	return time.Duration(c.Resilience.BackoffBaseMS) * time.Millisecond
}

// CircuitBreakerTimeout devuelve cuánto permanece abierto el circuito.
func (c Config) CircuitBreakerTimeout() time.Duration {
	return time.Duration(c.Resilience.CircuitBreakerTimeoutS) * time.Second
}

// GlobalConfig retorna la configuración global por colector (lectura).
func (c Config) GlobalConfig() map[string]map[string]any {
	return c.Collectors
}

// Credentials retorna una copia de las claves de API configuradas.
func (c Config) Credentials() map[string]string {
	out := make(map[string]string, len(c.APIKeys))
	for k, v := range c.APIKeys {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// ConfiguredServices lista los servicios con clave, ordenados.
func (c Config) ConfiguredServices() []string {
	out := make([]string, 0, len(c.APIKeys))
	for k, v := range c.APIKeys {
		if v != "" {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Helpers

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "t", "true", "y", "yes", "on":
		return true
	default:
		return false
	}
}

func parseInt(v string, def int) int {
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return i
}
