// Package sqlite persists workflow runs in a local SQLite database
// (pure Go driver, no cgo). It implements ports.RunRepository.
package sqlite
