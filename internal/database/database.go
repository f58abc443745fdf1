package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"hostelbook/internal/models"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// DB wraps the sqlite connection together with the in-memory resource cache
// and the per-resource lock table that serializes the write paths.
type DB struct {
	*sql.DB

	mu             sync.RWMutex
	resourcesCache map[string]models.Resource

	// Замки на уровне ресурса. Достаточно для одного процесса; при
	// многопроцессном деплое их место занял бы SELECT ... FOR UPDATE.
	resourceLocks sync.Map // map[string]*sync.Mutex

	logger *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		// Создаем директорию для БД, если её нет
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// The lock table keys on resource id; a shared *sql.DB connection pool
	// would otherwise let two book calls interleave their conflict checks.
	conn.SetMaxOpenConns(1)

	if err := createTables(conn); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return &DB{
		DB:             conn,
		resourcesCache: make(map[string]models.Resource),
		logger:         logger,
	}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		// Таблица ресурсов (стиральные машины, корты)
		`CREATE TABLE IF NOT EXISTS resources (
            id TEXT PRIMARY KEY,
            facility_id TEXT NOT NULL,
            name TEXT NOT NULL,
            category TEXT NOT NULL,
            is_operational BOOLEAN NOT NULL DEFAULT 1,
            sort_order INTEGER NOT NULL DEFAULT 0,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		// Таблица бронирований
		`CREATE TABLE IF NOT EXISTS bookings (
            id TEXT PRIMARY KEY,
            resource_id TEXT NOT NULL,
            user_id TEXT NOT NULL,
            user_name TEXT NOT NULL DEFAULT '',
            start_time DATETIME NOT NULL,
            end_time DATETIME NOT NULL,
            status TEXT NOT NULL DEFAULT 'CONFIRMED',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		// Лист ожидания
		`CREATE TABLE IF NOT EXISTS waitlist_entries (
            id TEXT PRIMARY KEY,
            facility_id TEXT NOT NULL,
            user_id TEXT NOT NULL,
            user_name TEXT NOT NULL DEFAULT '',
            category TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'WAITING',
            joined_at DATETIME NOT NULL
        )`,
		// Очередь уведомлений (outbox)
		`CREATE TABLE IF NOT EXISTS notify_queue (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            task_type TEXT NOT NULL,
            user_id TEXT NOT NULL,
            payload TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            retry_count INTEGER NOT NULL DEFAULT 0,
            last_error TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            processed_at DATETIME,
            next_retry_at DATETIME
        )`,

		`CREATE INDEX IF NOT EXISTS idx_resources_facility ON resources(facility_id, category)`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_resource ON bookings(resource_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_user ON bookings(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_start ON bookings(start_time)`,

		`CREATE INDEX IF NOT EXISTS idx_waitlist_queue ON waitlist_entries(facility_id, category, status, joined_at)`,
		// Не больше одной WAITING записи на (общежитие, пользователь, категория)
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_waitlist_unique_waiting
            ON waitlist_entries(facility_id, user_id, category) WHERE status = 'WAITING'`,

		`CREATE INDEX IF NOT EXISTS idx_notify_queue_status ON notify_queue(status, next_retry_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// lockResource takes the exclusive per-resource lock and returns the release
// function. Both book and cancel-and-reassign go through here, so competing
// writers on one resource are fully linearized while other resources proceed
// in parallel.
func (db *DB) lockResource(resourceID string) func() {
	v, _ := db.resourceLocks.LoadOrStore(resourceID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Ping проверяет соединение для health-check
func (db *DB) PingContext(ctx context.Context) error {
	return db.DB.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.DB.Close()
}
