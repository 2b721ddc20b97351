package repository

import "time"

// dialect запросы, зависящие от СУБД.
type dialect struct {
	name        string
	lookup      string
	insertEntry string
	linkCase    string
	timestamp   func(time.Time) any
}

var postgresDialect = dialect{
	name: "postgres",
	lookup: `
		SELECT case_id FROM case_subscriptions
		WHERE entity_id = $1 AND message = $2
		ORDER BY case_id`,
	insertEntry: `
		INSERT INTO audit_entries (id, type, ts, originator, message, data)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`,
	linkCase: `
		INSERT INTO case_entries (case_id, entry_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
	timestamp: func(t time.Time) any { return t.UTC() },
}

// В SQLite время хранится текстом RFC3339 с наносекундами, так строки сортируются по времени.
var sqliteDialect = dialect{
	name: "sqlite",
	lookup: `
		SELECT case_id FROM case_subscriptions
		WHERE entity_id = ? AND message = ?
		ORDER BY case_id`,
	insertEntry: `
		INSERT INTO audit_entries (id, type, ts, originator, message, data)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
	linkCase: `
		INSERT INTO case_entries (case_id, entry_id)
		VALUES (?, ?)
		ON CONFLICT DO NOTHING`,
	timestamp: func(t time.Time) any { return t.UTC().Format(time.RFC3339Nano) },
}
