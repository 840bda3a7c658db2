package db

import (
	"database/sql"
)

// Database opens and owns the *sql.DB behind a blob store. Connect also
// applies pending migrations, so DB is only usable after it succeeds.
type Database interface {
	Connect() error
	Close() error
	DB() *sql.DB
}
