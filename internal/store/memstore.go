package store

import (
	"sort"
	"sync"
)

// MemStore is an in-memory implementation of Storer for tests and the
// browser build.
type MemStore struct {
	mu        sync.RWMutex
	words     map[string]*Word
	sentences map[string]*Sentence
	links     map[linkKey]*Link
}

type linkKey struct{ word, sentence string }

// NewMemStore creates a new in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		words:     make(map[string]*Word),
		sentences: make(map[string]*Sentence),
		links:     make(map[linkKey]*Link),
	}
}

// Close is a no-op for MemStore.
func (s *MemStore) Close() error {
	return nil
}

func copyWord(w *Word) *Word {
	c := *w
	c.Aliases = append([]string{}, w.Aliases...)
	return &c
}

// =============================================================================
// Words
// =============================================================================

func (s *MemStore) UpsertWord(word *Word) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := copyWord(word)
	if old, ok := s.words[word.ID]; ok {
		c.CreatedAt = old.CreatedAt
	}
	s.words[word.ID] = c
	return nil
}

func (s *MemStore) GetWord(id string) (*Word, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if w, ok := s.words[id]; ok {
		return copyWord(w), nil
	}
	return nil, nil
}

func (s *MemStore) DeleteWord(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.words, id)
	for k := range s.links {
		if k.word == id {
			delete(s.links, k)
		}
	}
	return nil
}

func (s *MemStore) ListWords() ([]*Word, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Word, 0, len(s.words))
	for _, w := range s.words {
		result = append(result, copyWord(w))
	}
	sort.Slice(result, func(i, j int) bool {
		return byCreated(result[i].CreatedAt, result[i].ID, result[j].CreatedAt, result[j].ID)
	})
	return result, nil
}

func (s *MemStore) CountWords() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.words), nil
}

// =============================================================================
// Sentences
// =============================================================================

func (s *MemStore) UpsertSentence(sentence *Sentence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *sentence
	if old, ok := s.sentences[sentence.ID]; ok {
		c.CreatedAt = old.CreatedAt
	}
	s.sentences[sentence.ID] = &c
	return nil
}

func (s *MemStore) GetSentence(id string) (*Sentence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if st, ok := s.sentences[id]; ok {
		c := *st
		return &c, nil
	}
	return nil, nil
}

func (s *MemStore) DeleteSentence(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sentences, id)
	for k := range s.links {
		if k.sentence == id {
			delete(s.links, k)
		}
	}
	return nil
}

func (s *MemStore) ListSentences() ([]*Sentence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Sentence, 0, len(s.sentences))
	for _, st := range s.sentences {
		c := *st
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool {
		return byCreated(result[i].CreatedAt, result[i].ID, result[j].CreatedAt, result[j].ID)
	})
	return result, nil
}

func (s *MemStore) CountSentences() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sentences), nil
}

// =============================================================================
// Links
// =============================================================================

func (s *MemStore) LinkWord(link *Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := linkKey{link.WordID, link.SentenceID}
	c := *link
	if old, ok := s.links[key]; ok {
		c.CreatedAt = old.CreatedAt
	}
	s.links[key] = &c
	return nil
}

func (s *MemStore) UnlinkWord(wordID, sentenceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.links, linkKey{wordID, sentenceID})
	return nil
}

func (s *MemStore) ListLinks() ([]*Link, error) {
	return s.filterLinks(func(*Link) bool { return true }), nil
}

func (s *MemStore) ListLinksForWord(wordID string) ([]*Link, error) {
	return s.filterLinks(func(l *Link) bool { return l.WordID == wordID }), nil
}

func (s *MemStore) filterLinks(keep func(*Link) bool) []*Link {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Link
	for _, l := range s.links {
		if keep(l) {
			c := *l
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].SentenceID != result[j].SentenceID {
			return result[i].SentenceID < result[j].SentenceID
		}
		return result[i].WordID < result[j].WordID
	})
	return result
}

func (s *MemStore) CountLinks() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.links), nil
}

func byCreated(ca int64, ida string, cb int64, idb string) bool {
	if ca != cb {
		return ca < cb
	}
	return ida < idb
}

// Compile-time interface check
var _ Storer = (*MemStore)(nil)
