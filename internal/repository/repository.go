// Package repository is the access layer over the local SQLite cache.
// Uniqueness (vehicle triple, complaint ODI number, per-vehicle recall
// campaign) is enforced by the schema's UNIQUE constraints, not by
// application logic; inserts report a constraint hit as a distinct
// outcome so ingestion can treat "already present" as a no-op.
package repository

import (
	"database/sql"
	"errors"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// InsertOutcome tells an inserter what happened to its record.
type InsertOutcome int

const (
	// Inserted means the record is newly stored.
	Inserted InsertOutcome = iota
	// Duplicate means an identical identity already existed; nothing
	// was written.
	Duplicate
)

// isUniqueViolation reports whether err is a UNIQUE (or primary key)
// constraint failure from SQLite.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func boolPtr(nb sql.NullBool) *bool {
	if !nb.Valid {
		return nil
	}
	return &nb.Bool
}

func intPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	n := int(ni.Int64)
	return &n
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	return &nt.Time
}
