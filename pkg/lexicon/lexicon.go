// Package lexicon finds vocabulary words inside sentence text with a single
// Aho-Corasick automaton built from every word's surface forms.
package lexicon

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
)

// Normalize lowercases s, maps curly apostrophes to straight ones and
// collapses punctuation and whitespace runs into single spaces.
func Normalize(s string) string {
	norm, _ := normalize(s)
	return norm
}

// span is a byte range of the text handed to normalize.
type span struct{ start, end int }

// normalize is Normalize plus, for every output byte, the input range it came
// from. A collapsed separator run maps to one space spanning the whole run.
func normalize(s string) (string, []span) {
	var out strings.Builder
	out.Grow(len(s))
	spans := make([]span, 0, len(s))
	gap := span{start: -1}
	for i := 0; i < len(s); {
		ch, size := utf8.DecodeRuneInString(s[i:])
		end := i + size
		c := unicode.ToLower(ch)
		if c == '’' {
			c = '\''
		}
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '\'' {
			if gap.start < 0 {
				gap.start = i
			}
			gap.end = end
			i = end
			continue
		}
		if gap.start >= 0 && out.Len() > 0 {
			out.WriteByte(' ')
			spans = append(spans, gap)
		}
		gap = span{start: -1}
		n := out.Len()
		out.WriteRune(c)
		for k := n; k < out.Len(); k++ {
			spans = append(spans, span{i, end})
		}
		i = end
	}
	return out.String(), spans
}

// Language guesses the language of a vocabulary entry: "ko" when it
// contains Hangul, "en" otherwise.
func Language(s string) string {
	for _, r := range s {
		if unicode.Is(unicode.Hangul, r) {
			return "ko"
		}
	}
	return "en"
}

// Entry is a word to register.
type Entry struct {
	ID      string
	Label   string
	Aliases []string
}

// Mention is a word occurrence in scanned text.
type Mention struct {
	Start, End int // byte offsets into the scanned text
	Text       string
	WordIDs    []string
}

// Dictionary maps surface forms to word ids.
type Dictionary struct {
	ac       ahocorasick.AhoCorasick
	built    bool
	patterns []string
	index    map[string]int
	ids      [][]string
}

// Compile builds a dictionary. Entries whose forms normalize to nothing are
// skipped; several words may share a form.
func Compile(entries []Entry) *Dictionary {
	d := &Dictionary{index: make(map[string]int)}
	for _, e := range entries {
		forms := append([]string{e.Label}, e.Aliases...)
		for _, form := range forms {
			key := Normalize(form)
			if key == "" {
				continue
			}
			if idx, ok := d.index[key]; ok {
				d.ids[idx] = appendUnique(d.ids[idx], e.ID)
				continue
			}
			d.index[key] = len(d.patterns)
			d.patterns = append(d.patterns, key)
			d.ids = append(d.ids, []string{e.ID})
		}
	}

	if len(d.patterns) > 0 {
		builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
			AsciiCaseInsensitive: true,
			MatchOnlyWholeWords:  false,
			MatchKind:            ahocorasick.LeftMostLongestMatch,
		})
		d.ac = builder.Build(d.patterns)
		d.built = true
	}
	return d
}

// Len is the number of distinct surface forms.
func (d *Dictionary) Len() int { return len(d.patterns) }

// Lookup returns the word ids registered for surface.
func (d *Dictionary) Lookup(surface string) []string {
	idx, ok := d.index[Normalize(surface)]
	if !ok {
		return nil
	}
	return d.ids[idx]
}

// Scan returns non-overlapping mentions, leftmost-longest first. Matching
// runs over the normalized text, so case, curly apostrophes and punctuation
// inside a form do not matter; offsets and Text refer to the original. Latin
// matches must sit on word boundaries; Hangul matches may carry attached
// particles.
func (d *Dictionary) Scan(text string) []Mention {
	if !d.built {
		return nil
	}
	norm, spans := normalize(text)
	var out []Mention
	for _, m := range d.ac.FindAll(norm) {
		if !onBoundary(norm, m.Start(), m.End()) {
			continue
		}
		start, end := spans[m.Start()].start, spans[m.End()-1].end
		out = append(out, Mention{
			Start:   start,
			End:     end,
			Text:    text[start:end],
			WordIDs: d.ids[m.Pattern()],
		})
	}
	return out
}

// WordsIn returns the sorted distinct word ids mentioned in text.
func (d *Dictionary) WordsIn(text string) []string {
	seen := make(map[string]struct{})
	for _, m := range d.Scan(text) {
		for _, id := range m.WordIDs {
			seen[id] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func onBoundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isLatinWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isLatinWordRune(r) {
			return false
		}
	}
	return true
}

func isLatinWordRune(r rune) bool {
	if unicode.Is(unicode.Hangul, r) {
		return false
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func appendUnique(slice []string, item string) []string {
	for _, s := range slice {
		if s == item {
			return slice
		}
	}
	return append(slice, item)
}
