package sqlstore

import (
	"fmt"
	"strconv"
	"strings"
)

// dialect holds the handful of differences between SQLite and Postgres that
// the stores care about.
type dialect struct {
	name       string
	driverName string
	sqlite     bool
	// timestamp is the column type for instants.
	timestamp string
	// forUpdate is appended to SELECTs that read a row about to be rewritten.
	forUpdate string
	// lower is the function that case-folds a column for search.
	lower string
}

func dialectFor(driver string) (dialect, error) {
	switch strings.ToLower(driver) {
	case "", DriverSQLite, "sqlite3":
		return dialect{
			name:       DriverSQLite,
			driverName: "sqlite",
			sqlite:     true,
			timestamp:  "DATETIME",
			lower:      sqliteLower,
		}, nil
	case DriverPostgres, "postgresql", "pgx":
		return dialect{
			name:       DriverPostgres,
			driverName: "pgx",
			timestamp:  "TIMESTAMPTZ",
			forUpdate:  " FOR UPDATE",
			lower:      "LOWER",
		}, nil
	default:
		return dialect{}, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}
}

// rebind rewrites ? placeholders to $n for Postgres. Queries in this package
// never contain a literal question mark.
func (d dialect) rebind(query string) string {
	if d.sqlite || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
