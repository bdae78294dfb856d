package store

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

// ErrConflict reports a unique-key violation: inserting a post whose
// slug already exists, or a resource whose ID already exists.
var ErrConflict = errors.New("already exists")

// ErrNotFound reports a mutation aimed at an entity that does not
// exist. Get-style calls never return it; they report absence with a
// nil result instead.
var ErrNotFound = errors.New("not found")

// asConflict maps SQLite constraint violations onto ErrConflict and
// passes every other error through untouched.
func asConflict(err error) error {
	if err == nil {
		return nil
	}
	var serr sqlite3.Error
	if errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint {
		return ErrConflict
	}
	return err
}
