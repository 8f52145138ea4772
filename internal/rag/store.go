// Package rag retrieves short reference texts to enrich the intent prompt.
// Scores are token-set Jaccard similarity; nothing here is authoritative
// financial data.
package rag

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

// DefaultK is the number of snippets retrieved when k <= 0.
const DefaultK = 3

var tokenRe = regexp.MustCompile(`\w+`)

// Document is a retrievable text.
type Document struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Hit is a scored document.
type Hit struct {
	Document
	Score float64 `json:"score"`
}

type entry struct {
	doc    Document
	tokens map[string]struct{}
}

// DocStore is an in-memory document store. Adding a document with an
// existing ID replaces it in place.
type DocStore struct {
	mu      sync.RWMutex
	entries []entry
	index   map[string]int
}

// NewDocStore creates an empty store.
func NewDocStore() *DocStore {
	return &DocStore{index: make(map[string]int)}
}

func tokenize(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range tokenRe.FindAllString(strings.ToLower(text), -1) {
		set[tok] = struct{}{}
	}
	return set
}

// Add stores or replaces documents.
func (s *DocStore) Add(docs ...Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range docs {
		e := entry{doc: d, tokens: tokenize(d.Text)}
		if i, ok := s.index[d.ID]; ok {
			s.entries[i] = e
			continue
		}
		s.index[d.ID] = len(s.entries)
		s.entries = append(s.entries, e)
	}
}

// Len returns the number of stored documents.
func (s *DocStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Retrieve returns up to k documents with a positive score, best first.
// Equal scores keep insertion order.
func (s *DocStore) Retrieve(query string, k int) []Hit {
	if k <= 0 {
		k = DefaultK
	}
	q := tokenize(query)
	if len(q) == 0 {
		return nil
	}

	s.mu.RLock()
	hits := make([]Hit, 0, len(s.entries))
	for _, e := range s.entries {
		if score := jaccard(q, e.tokens); score > 0 {
			hits = append(hits, Hit{Document: e.doc, Score: score})
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

func jaccard(a, b map[string]struct{}) float64 {
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// FormatForPrompt renders hits as "- text" lines.
func FormatForPrompt(hits []Hit) string {
	lines := make([]string, 0, len(hits))
	for _, h := range hits {
		lines = append(lines, "- "+h.Text)
	}
	return strings.Join(lines, "\n")
}

// IDs returns the document IDs of hits in order.
func IDs(hits []Hit) []string {
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.ID)
	}
	return ids
}
