package config

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver for local runs and tests
	"github.com/rongwang/property-rental-server/internal/lifecycle"
	"github.com/rongwang/property-rental-server/internal/utils"
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// ApartmentTypes seeded with the schema
var ApartmentTypes = []string{"Studio", "One Bedroom", "Two Bedroom", "Three Bedroom", "Penthouse"}

// SetupDatabase initializes the database connection and makes sure the
// schema and lookup rows exist
func SetupDatabase(cfg *Config) (*sqlx.DB, error) {
	db, err := OpenDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := CreateTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

// OpenDatabase connects without touching the schema
func OpenDatabase(cfg DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect(cfg.Driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	if cfg.Driver == DriverSQLite {
		// SQLite allows one writer; an in-memory database also lives
		// inside a single connection.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	}

	return db, nil
}

func sqliteDSN(path string) string {
	if path == "" {
		path = ":memory:"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}

// dialect holds the column types that differ between drivers
type dialect struct {
	ID        string
	Timestamp string
	Money     string
	Blob      string
}

func dialectFor(driver string) dialect {
	if driver == DriverSQLite {
		return dialect{
			ID:        "INTEGER PRIMARY KEY AUTOINCREMENT",
			Timestamp: "TIMESTAMP",
			Money:     "REAL",
			Blob:      "BLOB",
		}
	}
	return dialect{
		ID:        "BIGSERIAL PRIMARY KEY",
		Timestamp: "TIMESTAMPTZ",
		Money:     "NUMERIC(10,2)",
		Blob:      "BYTEA",
	}
}

// CreateTables creates the necessary tables in the database and seeds the
// lookup rows. It is idempotent.
func CreateTables(db *sqlx.DB) error {
	d := dialectFor(db.DriverName())

	tables := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id ` + d.ID + `,
			username VARCHAR(50) UNIQUE NOT NULL,
			first_name VARCHAR(50) NOT NULL,
			last_name VARCHAR(50) NOT NULL,
			email VARCHAR(100) NOT NULL,
			phone_number VARCHAR(12) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(10) NOT NULL CHECK (role IN ('Owner', 'Manager', 'Tenant')),
			created_at ` + d.Timestamp + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS statuses (
			id INTEGER PRIMARY KEY,
			description VARCHAR(50) NOT NULL,
			category VARCHAR(20) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS apartment_types (
			id INTEGER PRIMARY KEY,
			description VARCHAR(50) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS buildings (
			code VARCHAR(7) PRIMARY KEY,
			owner_id BIGINT NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
			manager_id BIGINT REFERENCES users(id) ON DELETE RESTRICT,
			name VARCHAR(100) NOT NULL,
			description VARCHAR(100) NOT NULL DEFAULT '',
			address VARCHAR(100) NOT NULL,
			city VARCHAR(100) NOT NULL,
			province VARCHAR(100) NOT NULL,
			zip_code VARCHAR(7) NOT NULL,
			row_version BIGINT NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS apartments (
			id ` + d.ID + `,
			code VARCHAR(10) NOT NULL,
			building_code VARCHAR(7) NOT NULL REFERENCES buildings(code) ON DELETE RESTRICT,
			apartment_type_id INTEGER NOT NULL REFERENCES apartment_types(id),
			description VARCHAR(100) NOT NULL,
			rent ` + d.Money + ` NOT NULL CHECK (rent > 0),
			status_id INTEGER NOT NULL REFERENCES statuses(id),
			image ` + d.Blob + `,
			image_content_type VARCHAR(100),
			row_version BIGINT NOT NULL DEFAULT 1,
			UNIQUE (building_code, code)
		)`,
		`CREATE TABLE IF NOT EXISTS appointments (
			id ` + d.ID + `,
			tenant_id BIGINT NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
			manager_id BIGINT REFERENCES users(id) ON DELETE RESTRICT,
			apartment_id BIGINT NOT NULL REFERENCES apartments(id) ON DELETE RESTRICT,
			appointment_datetime ` + d.Timestamp + ` NOT NULL,
			description VARCHAR(100) NOT NULL DEFAULT '',
			status_id INTEGER NOT NULL REFERENCES statuses(id),
			row_version BIGINT NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id ` + d.ID + `,
			manager_id BIGINT NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
			apartment_id BIGINT NOT NULL REFERENCES apartments(id) ON DELETE RESTRICT,
			description VARCHAR(100) NOT NULL,
			event_date ` + d.Timestamp + ` NOT NULL,
			status_id INTEGER NOT NULL REFERENCES statuses(id),
			row_version BIGINT NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id ` + d.ID + `,
			sender_user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
			receiver_user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
			subject VARCHAR(100) NOT NULL,
			body TEXT NOT NULL,
			message_datetime ` + d.Timestamp + ` NOT NULL,
			status_id INTEGER NOT NULL REFERENCES statuses(id),
			row_version BIGINT NOT NULL DEFAULT 1
		)`,
	}

	for _, ddl := range tables {
		if _, err := db.Exec(ddl); err != nil {
			return err
		}
	}

	// Create indexes for the party filters used by list queries
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_appointments_tenant ON appointments(tenant_id)",
		"CREATE INDEX IF NOT EXISTS idx_appointments_manager ON appointments(manager_id)",
		"CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender_user_id)",
		"CREATE INDEX IF NOT EXISTS idx_messages_receiver ON messages(receiver_user_id)",
		"CREATE INDEX IF NOT EXISTS idx_apartments_status ON apartments(status_id)",
	}

	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			// Indexes are not critical
			utils.Logger.WithError(err).Warn("Failed to create index")
		}
	}

	return seedLookups(db)
}

func seedLookups(db *sqlx.DB) error {
	statusQuery := db.Rebind(`INSERT INTO statuses (id, description, category) VALUES (?, ?, ?) ON CONFLICT (id) DO NOTHING`)
	for _, s := range lifecycle.Catalogue {
		if _, err := db.Exec(statusQuery, s.ID, s.Description, string(s.Category)); err != nil {
			return fmt.Errorf("failed to seed status %d: %w", s.ID, err)
		}
	}

	typeQuery := db.Rebind(`INSERT INTO apartment_types (id, description) VALUES (?, ?) ON CONFLICT (id) DO NOTHING`)
	for i, name := range ApartmentTypes {
		if _, err := db.Exec(typeQuery, i+1, name); err != nil {
			return fmt.Errorf("failed to seed apartment type %q: %w", name, err)
		}
	}
	return nil
}
