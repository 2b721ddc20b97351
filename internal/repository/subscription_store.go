package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Mihklz/casetrail/internal/model"
)

// SubscriptionStore читает подписки кейсов из таблицы case_subscriptions.
// Только чтение: подписки ведёт внешняя система.
type SubscriptionStore struct {
	db      *sql.DB
	dialect dialect
}

// NewPostgresSubscriptionStore создает хранилище подписок поверх PostgreSQL.
func NewPostgresSubscriptionStore(db *sql.DB) *SubscriptionStore {
	return &SubscriptionStore{db: db, dialect: postgresDialect}
}

// NewSQLiteSubscriptionStore создает хранилище подписок поверх SQLite.
func NewSQLiteSubscriptionStore(db *sql.DB) *SubscriptionStore {
	return &SubscriptionStore{db: db, dialect: sqliteDialect}
}

// Lookup возвращает кейсы, подписанные на пару. Отсутствие подписок не ошибка.
func (s *SubscriptionStore) Lookup(ctx context.Context, entityID, message string) ([]model.CaseID, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.lookup, entityID, message)
	if err != nil {
		return nil, fmt.Errorf("query %s subscriptions: %w", s.dialect.name, err)
	}
	defer rows.Close()

	var ids []model.CaseID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		ids = append(ids, model.CaseID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return ids, nil
}
