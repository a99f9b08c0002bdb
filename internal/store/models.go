// Package store persists the vocabulary behind the constellation: words,
// sentences and the links saying which word appears in which sentence.
package store

// Link sources.
const (
	SourceUser = "user"
	SourceAuto = "auto"
)

// Word is a vocabulary entry.
type Word struct {
	ID          string   `json:"id" yaml:"id"`
	Text        string   `json:"text" yaml:"text"`
	Meaning     string   `json:"meaning,omitempty" yaml:"meaning,omitempty"`
	Aliases     []string `json:"aliases" yaml:"aliases,omitempty"`
	ReviewCount int      `json:"reviewCount" yaml:"reviewCount,omitempty"`
	CreatedAt   int64    `json:"createdAt" yaml:"-"`
	UpdatedAt   int64    `json:"updatedAt" yaml:"-"`
}

// Sentence is an example sentence collected by the learner.
type Sentence struct {
	ID          string `json:"id" yaml:"id"`
	Text        string `json:"text" yaml:"text"`
	ReviewCount int    `json:"reviewCount" yaml:"reviewCount,omitempty"`
	CreatedAt   int64  `json:"createdAt" yaml:"-"`
	UpdatedAt   int64  `json:"updatedAt" yaml:"-"`
}

// Link says a word appears in a sentence. A pair is stored at most once.
type Link struct {
	WordID     string `json:"wordId"`
	SentenceID string `json:"sentenceId"`
	Source     string `json:"source"` // SourceUser | SourceAuto
	CreatedAt  int64  `json:"createdAt"`
}

// Storer defines the interface for vocabulary persistence.
// Missing records are reported as (nil, nil).
type Storer interface {
	// Words
	UpsertWord(word *Word) error
	GetWord(id string) (*Word, error)
	DeleteWord(id string) error
	ListWords() ([]*Word, error)
	CountWords() (int, error)

	// Sentences
	UpsertSentence(sentence *Sentence) error
	GetSentence(id string) (*Sentence, error)
	DeleteSentence(id string) error
	ListSentences() ([]*Sentence, error)
	CountSentences() (int, error)

	// Links
	LinkWord(link *Link) error
	UnlinkWord(wordID, sentenceID string) error
	ListLinks() ([]*Link, error)
	ListLinksForWord(wordID string) ([]*Link, error)
	CountLinks() (int, error)

	// Lifecycle
	Close() error
}
