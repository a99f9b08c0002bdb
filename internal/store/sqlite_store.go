package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// SQLiteStore is the SQLite-backed vocabulary store used by the dev server
// and the CLI.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS words (
    id TEXT PRIMARY KEY,
    text TEXT NOT NULL,
    meaning TEXT,
    aliases TEXT,
    review_count INTEGER DEFAULT 0,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_words_text ON words(text);

CREATE TABLE IF NOT EXISTS sentences (
    id TEXT PRIMARY KEY,
    text TEXT NOT NULL,
    review_count INTEGER DEFAULT 0,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

-- No foreign keys: deletes cascade in application code
CREATE TABLE IF NOT EXISTS word_sentences (
    word_id TEXT NOT NULL,
    sentence_id TEXT NOT NULL,
    source TEXT NOT NULL DEFAULT 'user',
    created_at INTEGER NOT NULL,
    PRIMARY KEY (word_id, sentence_id)
);

CREATE INDEX IF NOT EXISTS idx_word_sentences_sentence ON word_sentences(sentence_id);
`

// NewSQLiteStore creates a new in-memory SQLite store.
func NewSQLiteStore() (*SQLiteStore, error) {
	return NewSQLiteStoreWithDSN(":memory:")
}

// NewSQLiteStoreWithDSN creates a store with a specific data source name.
// Use ":memory:" for in-memory or a file path for persistent storage.
func NewSQLiteStoreWithDSN(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every :memory: connection is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// =============================================================================
// Words
// =============================================================================

// UpsertWord inserts or updates a word. CreatedAt is kept on update.
func (s *SQLiteStore) UpsertWord(word *Word) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	aliases := word.Aliases
	if aliases == nil {
		aliases = []string{}
	}
	aliasesJSON, err := json.Marshal(aliases)
	if err != nil {
		return fmt.Errorf("failed to marshal aliases: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO words (id, text, meaning, aliases, review_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			meaning = excluded.meaning,
			aliases = excluded.aliases,
			review_count = excluded.review_count,
			updated_at = excluded.updated_at
	`, word.ID, word.Text, word.Meaning, string(aliasesJSON), word.ReviewCount,
		word.CreatedAt, word.UpdatedAt)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWord(row scanner) (*Word, error) {
	var w Word
	var meaning sql.NullString
	var aliasesJSON sql.NullString
	if err := row.Scan(&w.ID, &w.Text, &meaning, &aliasesJSON, &w.ReviewCount, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	w.Meaning = meaning.String
	w.Aliases = []string{}
	if aliasesJSON.String != "" {
		if err := json.Unmarshal([]byte(aliasesJSON.String), &w.Aliases); err != nil {
			w.Aliases = []string{}
		}
	}
	return &w, nil
}

const wordColumns = `id, text, meaning, aliases, review_count, created_at, updated_at`

// GetWord retrieves a word by ID.
func (s *SQLiteStore) GetWord(id string) (*Word, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, err := scanWord(s.db.QueryRow(`SELECT `+wordColumns+` FROM words WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return w, err
}

// DeleteWord removes a word and its sentence links.
func (s *SQLiteStore) DeleteWord(id string) error {
	return s.deleteWithLinks("DELETE FROM words WHERE id = ?", "DELETE FROM word_sentences WHERE word_id = ?", id)
}

// ListWords returns all words, oldest first.
func (s *SQLiteStore) ListWords() ([]*Word, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT ` + wordColumns + ` FROM words ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	words := []*Word{}
	for rows.Next() {
		w, err := scanWord(rows)
		if err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

// CountWords returns the total number of words.
func (s *SQLiteStore) CountWords() (int, error) {
	return s.count("SELECT COUNT(*) FROM words")
}

// =============================================================================
// Sentences
// =============================================================================

// UpsertSentence inserts or updates a sentence.
func (s *SQLiteStore) UpsertSentence(sentence *Sentence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO sentences (id, text, review_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			review_count = excluded.review_count,
			updated_at = excluded.updated_at
	`, sentence.ID, sentence.Text, sentence.ReviewCount, sentence.CreatedAt, sentence.UpdatedAt)
	return err
}

const sentenceColumns = `id, text, review_count, created_at, updated_at`

func scanSentence(row scanner) (*Sentence, error) {
	var st Sentence
	if err := row.Scan(&st.ID, &st.Text, &st.ReviewCount, &st.CreatedAt, &st.UpdatedAt); err != nil {
		return nil, err
	}
	return &st, nil
}

// GetSentence retrieves a sentence by ID.
func (s *SQLiteStore) GetSentence(id string) (*Sentence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, err := scanSentence(s.db.QueryRow(`SELECT `+sentenceColumns+` FROM sentences WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return st, err
}

// DeleteSentence removes a sentence and its word links.
func (s *SQLiteStore) DeleteSentence(id string) error {
	return s.deleteWithLinks("DELETE FROM sentences WHERE id = ?", "DELETE FROM word_sentences WHERE sentence_id = ?", id)
}

// ListSentences returns all sentences, oldest first.
func (s *SQLiteStore) ListSentences() ([]*Sentence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT ` + sentenceColumns + ` FROM sentences ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sentences := []*Sentence{}
	for rows.Next() {
		st, err := scanSentence(rows)
		if err != nil {
			return nil, err
		}
		sentences = append(sentences, st)
	}
	return sentences, rows.Err()
}

// CountSentences returns the total number of sentences.
func (s *SQLiteStore) CountSentences() (int, error) {
	return s.count("SELECT COUNT(*) FROM sentences")
}

// =============================================================================
// Links
// =============================================================================

// LinkWord records that a word appears in a sentence.
func (s *SQLiteStore) LinkWord(link *Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	source := link.Source
	if source == "" {
		source = SourceUser
	}
	_, err := s.db.Exec(`
		INSERT INTO word_sentences (word_id, sentence_id, source, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(word_id, sentence_id) DO UPDATE SET source = excluded.source
	`, link.WordID, link.SentenceID, source, link.CreatedAt)
	return err
}

// UnlinkWord removes one word/sentence link.
func (s *SQLiteStore) UnlinkWord(wordID, sentenceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM word_sentences WHERE word_id = ? AND sentence_id = ?", wordID, sentenceID)
	return err
}

// ListLinks returns every link ordered by sentence then word.
func (s *SQLiteStore) ListLinks() ([]*Link, error) {
	return s.queryLinks(`SELECT word_id, sentence_id, source, created_at FROM word_sentences
		ORDER BY sentence_id, word_id`)
}

// ListLinksForWord returns the links of one word.
func (s *SQLiteStore) ListLinksForWord(wordID string) ([]*Link, error) {
	return s.queryLinks(`SELECT word_id, sentence_id, source, created_at FROM word_sentences
		WHERE word_id = ? ORDER BY sentence_id`, wordID)
}

func (s *SQLiteStore) queryLinks(query string, args ...any) ([]*Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []*Link
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.WordID, &l.SentenceID, &l.Source, &l.CreatedAt); err != nil {
			return nil, err
		}
		links = append(links, &l)
	}
	return links, rows.Err()
}

// CountLinks returns the total number of links.
func (s *SQLiteStore) CountLinks() (int, error) {
	return s.count("SELECT COUNT(*) FROM word_sentences")
}

// =============================================================================
// Helpers
// =============================================================================

func (s *SQLiteStore) count(query string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow(query).Scan(&count)
	return count, err
}

func (s *SQLiteStore) deleteWithLinks(deleteRow, deleteLinks, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(deleteLinks, id); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.Exec(deleteRow, id); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Compile-time interface check
var _ Storer = (*SQLiteStore)(nil)
