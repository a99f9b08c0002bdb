// Package constellation derives the views the vocabulary backend serves:
// the word/sentence graph behind GET /graph/ and the weighted word
// co-occurrence map behind GET /constellation.
package constellation

import (
	"fmt"
	"sort"

	"github.com/kittclouds/constellation/internal/store"
	"github.com/kittclouds/constellation/pkg/graph"
	"github.com/kittclouds/constellation/pkg/layout"
	"github.com/kittclouds/constellation/pkg/lexicon"
)

// WordNodeID and SentenceNodeID keep the two id spaces apart in the graph.
func WordNodeID(id string) string     { return "word-" + id }
func SentenceNodeID(id string) string { return "sentence-" + id }

// BuildGraph converts the vocabulary into a graph payload: one node per word
// and sentence, one word->sentence edge per link. Links to missing records
// are skipped so the payload always validates.
func BuildGraph(words []*store.Word, sentences []*store.Sentence, links []*store.Link) graph.Payload {
	p := graph.Payload{
		Nodes: make([]graph.Node, 0, len(words)+len(sentences)),
		Edges: make([]graph.Edge, 0, len(links)),
	}

	wordIDs := make(map[string]struct{}, len(words))
	for _, w := range words {
		wordIDs[w.ID] = struct{}{}
		n := graph.Node{ID: WordNodeID(w.ID), Label: w.Text, Kind: graph.KindWord, ReviewCount: intPtr(w.ReviewCount)}
		if w.Meaning != "" {
			meaning := w.Meaning
			n.Meaning = &meaning
		}
		p.Nodes = append(p.Nodes, n)
	}

	sentenceIDs := make(map[string]struct{}, len(sentences))
	for _, s := range sentences {
		sentenceIDs[s.ID] = struct{}{}
		p.Nodes = append(p.Nodes, graph.Node{
			ID:          SentenceNodeID(s.ID),
			Label:       s.Text,
			Kind:        graph.KindSentence,
			ReviewCount: intPtr(s.ReviewCount),
		})
	}

	for _, l := range links {
		_, okW := wordIDs[l.WordID]
		_, okS := sentenceIDs[l.SentenceID]
		if okW && okS {
			p.Edges = append(p.Edges, graph.Edge{From: WordNodeID(l.WordID), To: SentenceNodeID(l.SentenceID)})
		}
	}
	return p
}

// LoadGraph reads the whole vocabulary from s and builds the payload.
func LoadGraph(s store.Storer) (graph.Payload, error) {
	words, err := s.ListWords()
	if err != nil {
		return graph.Payload{}, fmt.Errorf("list words: %w", err)
	}
	sentences, err := s.ListSentences()
	if err != nil {
		return graph.Payload{}, fmt.Errorf("list sentences: %w", err)
	}
	links, err := s.ListLinks()
	if err != nil {
		return graph.Payload{}, fmt.Errorf("list links: %w", err)
	}
	return BuildGraph(words, sentences, links), nil
}

// AutoLink scans every sentence for known words and records the missing
// links with source "auto". It returns how many links were added.
func AutoLink(s store.Storer, now int64) (int, error) {
	words, err := s.ListWords()
	if err != nil {
		return 0, fmt.Errorf("list words: %w", err)
	}
	sentences, err := s.ListSentences()
	if err != nil {
		return 0, fmt.Errorf("list sentences: %w", err)
	}
	links, err := s.ListLinks()
	if err != nil {
		return 0, fmt.Errorf("list links: %w", err)
	}

	entries := make([]lexicon.Entry, len(words))
	for i, w := range words {
		entries[i] = lexicon.Entry{ID: w.ID, Label: w.Text, Aliases: w.Aliases}
	}
	dict := lexicon.Compile(entries)

	have := make(map[[2]string]struct{}, len(links))
	for _, l := range links {
		have[[2]string{l.WordID, l.SentenceID}] = struct{}{}
	}

	added := 0
	for _, st := range sentences {
		for _, wordID := range dict.WordsIn(st.Text) {
			key := [2]string{wordID, st.ID}
			if _, ok := have[key]; ok {
				continue
			}
			if err := s.LinkWord(&store.Link{WordID: wordID, SentenceID: st.ID, Source: store.SourceAuto, CreatedAt: now}); err != nil {
				return added, fmt.Errorf("link %s to %s: %w", wordID, st.ID, err)
			}
			have[key] = struct{}{}
			added++
		}
	}
	return added, nil
}

// Hub is a highly connected node.
type Hub struct {
	ID     string
	Label  string
	Kind   graph.Kind
	Degree int
}

// Summary describes a graph's shape.
type Summary struct {
	Nodes          int
	Words          int
	Sentences      int
	Edges          int
	Components     int
	LargestCluster int
	Orphans        int
	TopHubs        []Hub
}

// Summarize counts nodes, components and the top n hubs by degree.
func Summarize(p graph.Payload, top int) Summary {
	adj := graph.BuildAdjacency(p.Edges)
	s := Summary{Nodes: len(p.Nodes), Edges: len(p.Edges)}
	for _, n := range p.Nodes {
		if n.Kind == graph.KindWord {
			s.Words++
		} else {
			s.Sentences++
		}
	}

	comps := layout.FindComponents(p.Nodes, p.Edges)
	s.Components = len(comps)
	if len(comps) > 0 {
		s.LargestCluster = len(comps[0])
	}
	s.Orphans = len(adj.Orphans(p.Nodes))

	hubs := make([]Hub, 0, len(p.Nodes))
	for _, n := range p.Nodes {
		if d := adj.Degree(n.ID); d > 0 {
			hubs = append(hubs, Hub{ID: n.ID, Label: n.Label, Kind: n.Kind, Degree: d})
		}
	}
	sort.SliceStable(hubs, func(i, j int) bool { return hubs[i].Degree > hubs[j].Degree })
	if top >= 0 && len(hubs) > top {
		hubs = hubs[:top]
	}
	s.TopHubs = hubs
	return s
}

func intPtr(v int) *int { return &v }
