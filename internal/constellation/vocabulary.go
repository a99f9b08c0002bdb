package constellation

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/kittclouds/constellation/internal/store"
)

// LinkRef names a word/sentence pair in a vocabulary file.
type LinkRef struct {
	Word     string `yaml:"word"`
	Sentence string `yaml:"sentence"`
}

// Vocabulary is the YAML import format:
//
//	words:
//	  - id: w1
//	    text: ocean
//	    meaning: large body of salt water
//	sentences:
//	  - id: s1
//	    text: The river meets the ocean.
//	links:
//	  - {word: w1, sentence: s1}
type Vocabulary struct {
	Words     []store.Word     `yaml:"words"`
	Sentences []store.Sentence `yaml:"sentences"`
	Links     []LinkRef        `yaml:"links"`
}

// ParseVocabulary decodes one YAML document. Entries without an id get a
// random one; such entries cannot be named in links.
func ParseVocabulary(r io.Reader) (*Vocabulary, error) {
	var v Vocabulary
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&v); err != nil {
		if err == io.EOF {
			return &v, nil
		}
		return nil, fmt.Errorf("decode vocabulary: %w", err)
	}
	for i := range v.Words {
		if v.Words[i].Text == "" {
			return nil, fmt.Errorf("word %d: text is required", i)
		}
		if v.Words[i].ID == "" {
			v.Words[i].ID = uuid.NewString()
		}
	}
	for i := range v.Sentences {
		if v.Sentences[i].Text == "" {
			return nil, fmt.Errorf("sentence %d: text is required", i)
		}
		if v.Sentences[i].ID == "" {
			v.Sentences[i].ID = uuid.NewString()
		}
	}
	return &v, nil
}

// ImportStats counts what Import wrote.
type ImportStats struct {
	Words     int
	Sentences int
	Links     int
}

// Import upserts the vocabulary into s at time now. Explicit links must
// reference words and sentences that exist after the upserts.
func Import(s store.Storer, v *Vocabulary, now int64) (ImportStats, error) {
	var st ImportStats
	for i := range v.Words {
		w := v.Words[i]
		w.CreatedAt, w.UpdatedAt = now, now
		if err := s.UpsertWord(&w); err != nil {
			return st, fmt.Errorf("word %s: %w", w.ID, err)
		}
		st.Words++
	}
	for i := range v.Sentences {
		sen := v.Sentences[i]
		sen.CreatedAt, sen.UpdatedAt = now, now
		if err := s.UpsertSentence(&sen); err != nil {
			return st, fmt.Errorf("sentence %s: %w", sen.ID, err)
		}
		st.Sentences++
	}
	for _, l := range v.Links {
		w, err := s.GetWord(l.Word)
		if err != nil {
			return st, err
		}
		sen, err := s.GetSentence(l.Sentence)
		if err != nil {
			return st, err
		}
		if w == nil || sen == nil {
			return st, fmt.Errorf("link %s/%s: unknown word or sentence", l.Word, l.Sentence)
		}
		if err := s.LinkWord(&store.Link{WordID: l.Word, SentenceID: l.Sentence, Source: store.SourceUser, CreatedAt: now}); err != nil {
			return st, fmt.Errorf("link %s/%s: %w", l.Word, l.Sentence, err)
		}
		st.Links++
	}
	return st, nil
}
