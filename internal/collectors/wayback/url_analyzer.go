// internal/collectors/wayback/url_analyzer.go
package wayback

import (
	"net/url"
	"path/filepath"
	"strings"

	"phineas/internal/platform/logx"
	"phineas/internal/platform/validator"
)

// URL categories attached to archived URL records.
const (
	CategorySensitive  = "sensitive_file"
	CategoryBackup     = "backup_file"
	CategoryRepository = "repository"
	CategoryAPI        = "api"
	CategoryJavaScript = "javascript"
)

// URLAnalyzer classifies archived URLs and extracts in-scope hosts.
type URLAnalyzer struct {
	logger logx.Logger
}

// NewURLAnalyzer creates a new URLAnalyzer.
func NewURLAnalyzer(logger logx.Logger) *URLAnalyzer {
	return &URLAnalyzer{logger: logger}
}

// Pattern definitions for detection
var (
	// Sensitive files that should never be exposed
	sensitivePatterns = []string{
		".env", "config.php", "database.yml", "credentials.json",
		"web.config", ".htpasswd", ".htaccess", "id_rsa", "id_dsa",
		"authorized_keys", "secrets.yml", "settings.py", "application.properties",
	}

	// Backup file extensions
	backupPatterns = []string{
		".bak", ".old", ".backup", ".sql", ".sql.gz", ".sql.bz2",
		".tar.gz", ".zip", ".rar", ".7z", ".dump", ".orig", ".save",
	}

	// Repository paths
	repoPatterns = []string{
		"/.git/", "/.svn/", "/.hg/", "/.bzr/", "/.cvs/",
	}

	// API path indicators
	apiPatterns = []string{
		"/api/", "/rest/", "/graphql", "/v1/", "/v2/", "/v3/", "/v4/",
		"/api-", "/restapi/", "/webapi/",
	}

	// Technology detection (path -> technology name), checked in order
	techPatterns = []struct{ path, name string }{
		{"/wp-admin/", "WordPress"},
		{"/wp-content/", "WordPress"},
		{"/wp-includes/", "WordPress"},
		{"/phpmyadmin/", "phpMyAdmin"},
		{"/administrator/", "Admin Panel"},
		{"/admin/", "Admin Panel"},
		{"/cpanel/", "cPanel"},
		{"/plesk/", "Plesk"},
		{"/webmail/", "Webmail"},
		{"/joomla/", "Joomla"},
		{"/drupal/", "Drupal"},
		{"/magento/", "Magento"},
		{"/moodle/", "Moodle"},
		{"/typo3/", "TYPO3"},
	}
)

// Analysis is what URLAnalyzer learns from one URL.
type Analysis struct {
	// Subdomain in-scope host distinct from the root ("" if none)
	Subdomain string

	// Categories detected categories, in fixed order
	Categories []string

	// Technology detected from well-known paths ("" if none)
	Technology string
}

// Analyze inspects rawURL relative to root (the investigated domain).
func (a *URLAnalyzer) Analyze(rawURL, root string) Analysis {
	var out Analysis

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		// CDX sometimes omits the scheme
		u, err = url.Parse("http://" + rawURL)
		if err != nil {
			return out
		}
	}

	out.Subdomain = a.extractSubdomain(u.Hostname(), root)

	path := strings.ToLower(u.Path)
	fileName := filepath.Base(path)

	if hasAny(fileName, sensitivePatterns, strings.Contains) {
		a.logger.Warn("detected sensitive file", "url", rawURL)
		out.Categories = append(out.Categories, CategorySensitive)
	}
	if hasAny(fileName, backupPatterns, strings.HasSuffix) {
		out.Categories = append(out.Categories, CategoryBackup)
	}
	if hasAny(path, repoPatterns, strings.Contains) {
		a.logger.Warn("detected repository exposure", "url", rawURL)
		out.Categories = append(out.Categories, CategoryRepository)
	}
	if hasAny(path, apiPatterns, strings.Contains) {
		out.Categories = append(out.Categories, CategoryAPI)
	}
	if filepath.Ext(path) == ".js" {
		out.Categories = append(out.Categories, CategoryJavaScript)
	}

	for _, tp := range techPatterns {
		if strings.Contains(path, tp.path) {
			out.Technology = tp.name
			break
		}
	}

	return out
}

// extractSubdomain returns host if it is a valid subdomain of root.
func (a *URLAnalyzer) extractSubdomain(host, root string) string {
	host = validator.NormalizeDomain(host)
	if host == "" || !validator.IsSubdomain(host, root) {
		return ""
	}
	if !validator.IsDomain(host) {
		return ""
	}
	return host
}

func hasAny(s string, patterns []string, match func(string, string) bool) bool {
	for _, p := range patterns {
		if match(s, p) {
			return true
		}
	}
	return false
}
