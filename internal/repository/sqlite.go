package repository

import (
	"database/sql/driver"
	"strings"

	sqlitedriver "modernc.org/sqlite"
)

// SQLite's built-in lower() folds ASCII only. Replacing it with Go's Unicode
// case mapping makes LOWER(...) LIKE searches match names such as "Şahin" the
// same way Postgres does.
func init() {
	if err := sqlitedriver.RegisterDeterministicScalarFunction("lower", 1, unicodeLower); err != nil {
		panic(err)
	}
}

func unicodeLower(_ *sqlitedriver.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}
