package postgres

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/courtsidehq/booking-server/config"

	_ "github.com/lib/pq"
)

func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to PostgreSQL")
	return db, nil
}

func RunMigrations(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			name VARCHAR(255) NOT NULL,
			role VARCHAR(20) NOT NULL DEFAULT 'member',
			stripe_customer_id VARCHAR(100),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS sessions (
			id SERIAL PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			price_cents BIGINT NOT NULL,
			spots_remaining INTEGER NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'open',
			starts_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS bookings (
			id SERIAL PRIMARY KEY,
			session_id INTEGER REFERENCES sessions(id),
			user_id INTEGER REFERENCES users(id),
			guests INTEGER NOT NULL DEFAULT 0,
			status VARCHAR(20) NOT NULL DEFAULT 'reserved',
			reserved_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			confirmed_at TIMESTAMP,
			cancelled_at TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS orders (
			id SERIAL PRIMARY KEY,
			booking_id INTEGER REFERENCES bookings(id),
			user_id INTEGER REFERENCES users(id),
			amount_cents BIGINT NOT NULL,
			discount_cents BIGINT NOT NULL DEFAULT 0,
			stripe_payment_intent_id VARCHAR(100),
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			is_split BOOLEAN NOT NULL DEFAULT FALSE,
			split_group_id VARCHAR(64),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS memberships (
			id SERIAL PRIMARY KEY,
			user_id INTEGER REFERENCES users(id),
			tier VARCHAR(20) NOT NULL DEFAULT 'basic',
			external_subscription_id VARCHAR(100) UNIQUE NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'active',
			discount_percent INTEGER NOT NULL DEFAULT 0,
			priority_booking_hours INTEGER NOT NULL DEFAULT 0,
			guest_passes_remaining INTEGER NOT NULL DEFAULT 0,
			current_period_start TIMESTAMP NOT NULL,
			current_period_end TIMESTAMP NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS webhook_events (
			event_id VARCHAR(100) PRIMARY KEY,
			event_type VARCHAR(100) NOT NULL,
			received_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_bookings_session_id ON bookings(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_booking_id ON orders(booking_id)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_payment_intent ON orders(stripe_payment_intent_id)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_split_group ON orders(split_group_id)`,
		`CREATE INDEX IF NOT EXISTS idx_memberships_user_id ON memberships(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_status_starts ON sessions(status, starts_at)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("failed to execute migration: %v", err)
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}
