// Package repository holds the MySQL-backed data access types. Sentinel
// errors let services translate storage outcomes without inspecting driver
// errors themselves.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a conditional update finds the row in a state
// that forbids the change.
var ErrConflict = errors.New("conflict")

// ErrInsufficientStock is returned when a conditional stock decrement
// matches no row because stock is lower than requested.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrEmailExists is returned on a duplicate subscriber email.
var ErrEmailExists = errors.New("email already exists")

// isDuplicate reports a MySQL duplicate-key error (1062).
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
