package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Mihklz/casetrail/internal/audit"
	"github.com/Mihklz/casetrail/internal/logger"
	"github.com/Mihklz/casetrail/internal/model"
)

// AuditStore сохраняет записи аудита и их связи с кейсами в одной транзакции.
// Повторная запись с тем же ID ничего не меняет, поэтому повторы безопасны.
type AuditStore struct {
	db      *sql.DB
	dialect dialect
}

// NewPostgresAuditStore создает хранилище записей поверх PostgreSQL.
func NewPostgresAuditStore(db *sql.DB) *AuditStore {
	return &AuditStore{db: db, dialect: postgresDialect}
}

// NewSQLiteAuditStore создает хранилище записей поверх SQLite.
func NewSQLiteAuditStore(db *sql.DB) *AuditStore {
	return &AuditStore{db: db, dialect: sqliteDialect}
}

// AppendEntry записывает строку audit_entries и по строке case_entries на каждый кейс.
func (s *AuditStore) AppendEntry(ctx context.Context, entry audit.Entry, cases model.CaseSet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			logger.Log.Error("Failed to rollback audit transaction", zap.Error(err))
		}
	}()

	_, err = tx.ExecContext(ctx, s.dialect.insertEntry,
		entry.ID.String(),
		entry.Type,
		s.dialect.timestamp(entry.Timestamp),
		entry.Originator,
		entry.Message,
		entry.Data,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.dialect.linkCase)
	if err != nil {
		return fmt.Errorf("prepare case link: %w", err)
	}
	defer stmt.Close()

	for _, c := range cases {
		if _, err := stmt.ExecContext(ctx, string(c), entry.ID.String()); err != nil {
			return fmt.Errorf("link audit entry to case %s: %w", c, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit audit transaction: %w", err)
	}

	logger.Log.Debug("Audit entry stored",
		zap.String("dialect", s.dialect.name),
		zap.String("entry_id", entry.ID.String()),
		zap.Int("cases", len(cases)),
	)
	return nil
}
