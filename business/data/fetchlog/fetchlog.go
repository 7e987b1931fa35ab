// Package fetchlog records the outcome of every holiday source request for operators.
// It is an audit trail only, fetched holidays are never read back from it.
package fetchlog

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Record is a row of the fetch_log table
type Record struct {
	Id           string    `db:"id" json:"id"`
	Kind         string    `db:"kind" json:"kind"`
	Year         int       `db:"year" json:"year,omitempty"`
	CountryCode  string    `db:"country_code" json:"country_code,omitempty"`
	Succeeded    bool      `db:"succeeded" json:"succeeded"`
	Stale        bool      `db:"stale" json:"stale"`
	RecordCount  int       `db:"record_count" json:"record_count"`
	ErrorMessage string    `db:"error_message" json:"error_message,omitempty"`
	StartedAt    time.Time `db:"started_at" json:"started_at"`
	DurationMs   int64     `db:"duration_ms" json:"duration_ms"`
}

// createTableStatement creates fetch_log when missing
const createTableStatement = "create table if not exists fetch_log ( " +
	"id uuid primary key, " +
	"kind varchar(16) not null, " +
	"year integer not null, " +
	"country_code varchar(8) not null, " +
	"succeeded boolean not null, " +
	"stale boolean not null, " +
	"record_count integer not null, " +
	"error_message text not null, " +
	"started_at timestamp with time zone not null, " +
	"duration_ms bigint not null)"

// EnsureSchema creates the fetch_log table if it does not exist
func EnsureSchema(db *sqlx.DB) error {
	_, err := db.Exec(createTableStatement)
	if err != nil {
		return fmt.Errorf("unable to create fetch_log table: %w", err)
	}
	return nil
}

// RecordFetch inserts record
func RecordFetch(db *sqlx.DB, record *Record) error {
	statementString := "insert into fetch_log ( " +
		"id, " +
		"kind, " +
		"year, " +
		"country_code, " +
		"succeeded, " +
		"stale, " +
		"record_count, " +
		"error_message, " +
		"started_at, " +
		"duration_ms) " +
		"values (" +
		":id, " +
		":kind, " +
		":year, " +
		":country_code, " +
		":succeeded, " +
		":stale, " +
		":record_count, " +
		":error_message, " +
		":started_at, " +
		":duration_ms)"
	statementString = db.Rebind(statementString)
	_, err := db.NamedExec(statementString, record)
	return err
}

// RecentFetches retrieves up to limit records, newest first
func RecentFetches(db *sqlx.DB, limit int) ([]Record, error) {
	query := "select * from fetch_log order by started_at desc limit $1"
	var records []Record
	err := db.Select(&records, query, limit)
	if err != nil {
		return nil, fmt.Errorf("unable to query fetch_log table. query:%s error: %w", query, err)
	}
	return records, nil
}
