package store

import "strings"

type DatabaseType string

const (
	DBTypeMemory   DatabaseType = "memory"
	DBTypePostgres DatabaseType = "postgres"
	DBTypeSQLite   DatabaseType = "sqlite"
)

type DBConfig struct {
	DSN  string
	Type DatabaseType
}

// DetectType picks a backend from the DSN: empty means the in-process
// list from the config file.
func DetectType(dsn string) DatabaseType {
	switch {
	case dsn == "":
		return DBTypeMemory
	case strings.HasPrefix(dsn, "postgres"):
		return DBTypePostgres
	default:
		return DBTypeSQLite
	}
}
