package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// ErrorDump flattens an error chain into log fields. The DB* fields are set
// when a driver error from Postgres or SQLite sits in the chain.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Chain      []string `json:"chain,omitempty"`

	DBDriver     string `json:"db_driver,omitempty"`
	DBCode       string `json:"db_code,omitempty"`
	DBConstraint string `json:"db_constraint,omitempty"`
	DBTable      string `json:"db_table,omitempty"`
	DBDetail     string `json:"db_detail,omitempty"`
	DBMessage    string `json:"db_message,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	if !dumpPgx(err, &d) && !dumpPQ(err, &d) {
		dumpSQLite(err, &d)
	}
	return d
}

func dumpPgx(err error, d *ErrorDump) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	d.DBDriver = "pgx"
	d.DBCode = pgErr.Code
	d.DBConstraint = pgErr.ConstraintName
	d.DBTable = pgErr.TableName
	d.DBDetail = pgErr.Detail
	d.DBMessage = pgErr.Message
	return true
}

func dumpPQ(err error, d *ErrorDump) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	d.DBDriver = "pq"
	d.DBCode = string(pqErr.Code)
	d.DBConstraint = pqErr.Constraint
	d.DBTable = pqErr.Table
	d.DBDetail = pqErr.Detail
	d.DBMessage = pqErr.Message
	return true
}

func dumpSQLite(err error, d *ErrorDump) bool {
	var liteErr sqlite3.Error
	if !errors.As(err, &liteErr) {
		return false
	}
	d.DBDriver = "sqlite"
	d.DBCode = liteErr.ExtendedCode.Error()
	d.DBMessage = liteErr.Error()
	return true
}
