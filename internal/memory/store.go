package memory

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/desktopfriends/petagent/internal/llm"
)

// Store persists conversation snapshots to SQLite, one row per
// message, keyed by persona. Tool-role messages and tool-call
// metadata are transient loop state and are not persisted; a restored
// window contains only the user/assistant turns.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) the snapshot database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS history (
			id         TEXT PRIMARY KEY,
			persona_id TEXT NOT NULL,
			seq        INTEGER NOT NULL,
			role       TEXT NOT NULL,
			content    TEXT NOT NULL,
			saved_at   TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_history_persona ON history(persona_id, seq);
	`)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the persisted snapshot for a persona with the given
// window contents. Tool-role messages are dropped; assistant messages
// that carried only tool calls (no text) are dropped with them.
func (s *Store) Save(personaID string, msgs []llm.Message) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM history WHERE persona_id = ?`, personaID); err != nil {
		return fmt.Errorf("clear old snapshot: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	seq := 0
	for _, m := range msgs {
		if m.Role == "tool" || m.Content == "" {
			continue
		}
		_, err := tx.Exec(`
			INSERT INTO history (id, persona_id, seq, role, content, saved_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, uuid.NewString(), personaID, seq, m.Role, m.Content, now)
		if err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		seq++
	}

	return tx.Commit()
}

// Load returns the persisted snapshot for a persona, oldest first.
// A persona with no snapshot yields an empty slice and no error.
func (s *Store) Load(personaID string) ([]llm.Message, error) {
	rows, err := s.db.Query(`
		SELECT role, content FROM history
		WHERE persona_id = ?
		ORDER BY seq ASC
	`, personaID)
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	defer rows.Close()

	var msgs []llm.Message
	for rows.Next() {
		var m llm.Message
		if err := rows.Scan(&m.Role, &m.Content); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// Clear removes the persisted snapshot for a persona.
func (s *Store) Clear(personaID string) error {
	if _, err := s.db.Exec(`DELETE FROM history WHERE persona_id = ?`, personaID); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}
