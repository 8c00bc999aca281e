package auth

import (
	"embed"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

// GetMigrationsFS returns the users table migrations for this package
func GetMigrationsFS() embed.FS {
	return migrationsFS
}
