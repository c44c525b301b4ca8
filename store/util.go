package store

import (
	"database/sql"
	"strings"
)

// isUniqueViolation recognizes a unique-constraint failure across the
// dialects this package ships (sqlitedialect, pgdialect) by substring
// matching on the driver error text, since database/sql has no portable
// error code for this.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate key")
}

func isAffected(res sql.Result) bool {
	rows, err := res.RowsAffected()
	if err != nil {
		return true
	}
	return rows != 0
}

func getAffected(res sql.Result) int64 {
	ret, err := res.RowsAffected()
	if err != nil {
		return -1
	}
	return ret
}
