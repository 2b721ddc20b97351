// Package repository содержит подключения к базам данных и SQL-хранилища подписок и записей аудита.
package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

//go:generate mockgen -source=database.go -destination=mocks/mock_database.go -package=mocks

//go:embed sqlite_schema.sql
var sqliteSchema string

// Database интерфейс для работы с базой данных
type Database interface {
	// Ping проверяет соединение с базой данных
	Ping(ctx context.Context) error
	// Close закрывает соединение с базой данных
	Close() error
	// GetConnection возвращает объект соединения с базой данных
	GetConnection() *sql.DB
}

// PostgresDB реализация интерфейса Database для PostgreSQL
type PostgresDB struct {
	db *sql.DB
}

// NewPostgresDB создает новое подключение к PostgreSQL
func NewPostgresDB(ctx context.Context, dsn string) (*PostgresDB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	// Проверяем соединение
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresDB{db: db}, nil
}

// Ping проверяет соединение с базой данных
func (p *PostgresDB) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close закрывает соединение с базой данных
func (p *PostgresDB) Close() error {
	return p.db.Close()
}

// GetConnection возвращает объект соединения с базой данных
func (p *PostgresDB) GetConnection() *sql.DB {
	return p.db
}

// SQLiteDB однофайловая база для хоста без PostgreSQL. Схема создаётся при открытии.
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB открывает (или создает) базу SQLite в режиме WAL.
func NewSQLiteDB(ctx context.Context, path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Одно соединение: PRAGMA действуют на соединение, а запись в SQLite всё равно последовательная
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite %q: %w", p, err)
		}
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Ping проверяет соединение с базой данных
func (s *SQLiteDB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close закрывает базу
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// GetConnection возвращает объект соединения с базой данных
func (s *SQLiteDB) GetConnection() *sql.DB {
	return s.db
}
