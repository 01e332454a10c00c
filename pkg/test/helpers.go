package test

import (
	"database/sql"
	"log"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"todolists/internal/adapter/database/sqlite"
	. "todolists/pkg/db"
)

// InitTestDB opens a migrated in-memory database. A single connection keeps
// every query on the same in-memory database.
func InitTestDB() *sqlite.DB {
	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")

	if err != nil {
		log.Fatal(err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := RunMigrations(db); err != nil {
		log.Fatal(err)
	}

	return sqlite.Wrap(db)
}

func CleanDB(t *testing.T, db *sqlite.DB) {
	for _, table := range []string{"job", "todo_item", "todo_list", "notification"} {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			t.Fatalf("Failed to clean table %s: %v", table, err)
		}
	}
}

func TeardownDB(t *testing.T, db *sqlite.DB) {
	if db != nil {
		CleanDB(t, db)
		db.Close()
	}
}
