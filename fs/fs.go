// Package appfs embeds the files shipped with the binaries: database migrations and email templates.
package appfs

import "embed"

//go:embed migrations templates/email/*
var FS embed.FS

// MigrationsDir returns the migrations directory of a database engine.
func MigrationsDir(engine string) string {
	return "migrations/" + engine
}
