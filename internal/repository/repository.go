// Package repository handles all interactions with the database.
//
// ExerciseStore implements dao.ExerciseDAO once, on top of GORM; the same
// code serves PostgreSQL, MySQL and SQLite, which differ only in the
// dialector the session was opened with.
package repository
