// Package dialect names the database vendors the engine can generate SQL
// for, and the per-vendor limits that shape generated identifiers.
package dialect

import "fmt"

// Supported vendor identifiers.
const (
	SQLite   = "sqlite"
	Postgres = "postgres"
	MySQL    = "mysql"
	Oracle   = "oracle"
)

// Normalize maps common aliases onto the canonical vendor constants.
// Returns an error for anything it does not recognize.
func Normalize(vendor string) (string, error) {
	switch vendor {
	case SQLite, "sqlite3":
		return SQLite, nil
	case Postgres, "postgresql":
		return Postgres, nil
	case MySQL, "mariadb":
		return MySQL, nil
	case Oracle:
		return Oracle, nil
	}
	return "", fmt.Errorf("unsupported database vendor: %q", vendor)
}

// MaxIdentifierLength returns the vendor's identifier length limit.
// SQLite has no practical limit; 200 keeps generated names bounded.
func MaxIdentifierLength(vendor string) int {
	switch vendor {
	case Postgres:
		return 63
	case MySQL:
		return 64
	case Oracle:
		return 30
	default:
		return 200
	}
}
