package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"senara/config"

	_ "modernc.org/sqlite"
)

// DB is the global SQLite handle for the booking store.
var DB *sql.DB

var schema = []string{
	`CREATE TABLE IF NOT EXISTS ServiceAvailability (
		id INTEGER PRIMARY KEY,
		studio_location TEXT,
		service_name TEXT,
		employee_id INTEGER,
		employee_name TEXT,
		appointment_date DATE,
		appointment_time TIME,
		is_available BOOLEAN
	);`,
	`CREATE TABLE IF NOT EXISTS Appointment (
		appointment_id INTEGER PRIMARY KEY,
		service_availability_id INTEGER,
		user_id TEXT,
		customer_name TEXT NOT NULL,
		customer_contact TEXT,
		service_name TEXT,
		service_price REAL,
		employee_id INTEGER,
		employee_name TEXT,
		studio_location TEXT,
		appointment_date DATE,
		appointment_time TIME,
		status TEXT CHECK(status IN ('Scheduled', 'Completed', 'Cancelled')),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (service_availability_id) REFERENCES ServiceAvailability(id)
	);`,
	`CREATE TABLE IF NOT EXISTS StudioLocation (
		studio_id INTEGER PRIMARY KEY AUTOINCREMENT,
		studio_name TEXT NOT NULL,
		city TEXT NOT NULL,
		address TEXT,
		UNIQUE(studio_name, city)
	);`,
	`CREATE TABLE IF NOT EXISTS Services (
		service_id INTEGER PRIMARY KEY AUTOINCREMENT,
		service_name TEXT NOT NULL,
		category TEXT NOT NULL,
		price_mittel_without_card REAL,
		price_munich_without_card REAL,
		price_mittel_with_card REAL,
		price_munich_with_card REAL
	);`,
}

// Open opens a SQLite database at the given path and bootstraps the schema.
// Tests pass ":memory:".
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// An in-memory database exists per connection; keep the pool at one
	// so schema and queries share it.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// WAL for concurrent readers, busy timeout so webhook turns queue
	// instead of failing on a locked database.
	pragmas := []string{
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA foreign_keys = ON;`,
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma: %w", err)
		}
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create tables: %w", err)
		}
	}
	return db, nil
}

// InitDB initializes the global SQLite connection.
func InitDB() {
	db, err := Open(config.AppConfig.DatabasePath)
	if err != nil {
		log.Fatalf("failed to open booking database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping booking database: %v", err)
	}

	DB = db
	log.Println("Connected to SQLite successfully!")
}
