package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// MemoryPath selects a private in-memory database.
const MemoryPath = ":memory:"

var db *sql.DB

// Initialize opens the SQLite connection at dbPath and runs migrations.
// The default in-memory database keeps probe history for the process
// lifetime only.
func Initialize(dbPath string) error {
	if dbPath == "" {
		dbPath = MemoryPath
	}
	log.Printf("Opening database at: %s", dbPath)

	conn, err := Open(dbPath)
	if err != nil {
		return err
	}

	if err := Migrate(conn); err != nil {
		conn.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	db = conn
	log.Println("Database initialized successfully")
	return nil
}

// Open opens and pings a SQLite database without running migrations.
func Open(dbPath string) (*sql.DB, error) {
	if dbPath != MemoryPath {
		// Create directory if path contains subdirectories
		dir := filepath.Dir(dbPath)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every pooled connection to ":memory:" would get its own empty database,
	// and SQLite serializes writers anyway.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return conn, nil
}

// GetDB returns the database connection
func GetDB() *sql.DB {
	return db
}

// Close closes the database connection
func Close() error {
	if db != nil {
		log.Println("Closing database connection")
		return db.Close()
	}
	return nil
}
