package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/sqlgo/lexical"
	"github.com/hupe1980/sqlgo/model"
)

// Store combines example storage with inverted indexing using Roaring
// Bitmaps.
//
// Architecture:
//   - Primary storage: map[uint32]*model.Example (records by dense id)
//   - Keyword index: map[token]*roaring.Bitmap (posting lists)
//   - Pattern index: map[key]*roaring.Bitmap for "{category}_{complexity}"
//     and "table_{name}" keys
//
// Reads take the shared lock; Add and ApplyFeedback take the exclusive
// lock, which also serializes concurrent feedback for the same example.
type Store struct {
	mu sync.RWMutex

	examples map[uint32]*model.Example
	byID     map[string]uint32

	keywords map[string]*roaring.Bitmap
	patterns map[string]*roaring.Bitmap

	next uint32
}

// New creates an empty example store.
func New() *Store {
	return &Store{
		examples: make(map[uint32]*model.Example),
		byID:     make(map[string]uint32),
		keywords: make(map[string]*roaring.Bitmap),
		patterns: make(map[string]*roaring.Bitmap),
	}
}

// Validate checks the invariants a corpus record must satisfy before it may
// enter the store. The loader uses the same checks to quarantine malformed
// records instead of defaulting their fields.
func Validate(ex model.Example) error {
	switch {
	case strings.TrimSpace(ex.ID) == "":
		return fmt.Errorf("missing id")
	case strings.TrimSpace(ex.NaturalLanguage) == "":
		return fmt.Errorf("missing natural language text")
	case strings.TrimSpace(ex.SQL) == "":
		return fmt.Errorf("missing sql text")
	case !ex.Pattern.Complexity.Valid():
		return fmt.Errorf("invalid complexity %q", ex.Pattern.Complexity)
	case ex.QualityScore < 0 || ex.QualityScore > 100:
		return fmt.Errorf("quality score %v out of range [0,100]", ex.QualityScore)
	case ex.SuccessRate < 0 || ex.SuccessRate > 100:
		return fmt.Errorf("success rate %v out of range [0,100]", ex.SuccessRate)
	case ex.UsageCount < 0:
		return fmt.Errorf("negative usage count %d", ex.UsageCount)
	}
	return nil
}

// Add validates and indexes one example.
func (s *Store) Add(ex model.Example) error {
	if err := Validate(ex); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[ex.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateExample, ex.ID)
	}

	id := s.next
	s.next++

	record := ex
	s.examples[id] = &record
	s.byID[ex.ID] = id

	s.indexLocked(id, &record)

	return nil
}

// indexLocked registers an example in both inverted indexes.
// Caller must hold s.mu.Lock().
func (s *Store) indexLocked(id uint32, ex *model.Example) {
	seen := make(map[string]struct{})
	for _, tok := range lexical.Tokenize(ex.NaturalLanguage) {
		seen[tok] = struct{}{}
	}
	for _, kw := range ex.Pattern.Keywords {
		if n := lexical.Normalize(kw); n != "" {
			seen[n] = struct{}{}
		}
	}
	for tok := range seen {
		s.postingLocked(s.keywords, tok).Add(id)
	}

	if ex.Pattern.Category != "" {
		s.postingLocked(s.patterns, ex.Pattern.Key()).Add(id)
	}
	for _, table := range ex.Pattern.ReferencedTables {
		if table == "" {
			continue
		}
		s.postingLocked(s.patterns, TableKey(table)).Add(id)
	}
}

// postingLocked returns the bitmap for key, creating it when missing.
// Caller must hold s.mu.Lock().
func (s *Store) postingLocked(index map[string]*roaring.Bitmap, key string) *roaring.Bitmap {
	bm, ok := index[key]
	if !ok {
		bm = roaring.New()
		index[key] = bm
	}
	return bm
}

// TableKey returns the pattern index key for a referenced table.
func TableKey(table string) string {
	return "table_" + strings.ToLower(table)
}

// Get returns a snapshot of the example with the given external id.
func (s *Store) Get(id string) (model.Example, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	internal, ok := s.byID[id]
	if !ok {
		return model.Example{}, false
	}
	return *s.examples[internal], true
}

// Len returns the number of stored examples.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.examples)
}

// TokenIDs returns the union of keyword postings for the given tokens.
func (s *Store) TokenIDs(tokens []string) *roaring.Bitmap {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := roaring.New()
	for _, tok := range tokens {
		if bm, ok := s.keywords[tok]; ok {
			result.Or(bm)
		}
	}
	return result
}

// PatternIDs returns the union of pattern postings for the given keys.
// Keys are the composite "{category}_{complexity}" form or TableKey output.
func (s *Store) PatternIDs(keys []string) *roaring.Bitmap {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := roaring.New()
	for _, key := range keys {
		if bm, ok := s.patterns[key]; ok {
			result.Or(bm)
		}
	}
	return result
}

// TableIDs returns the union of table postings for the given table names.
func (s *Store) TableIDs(tables []string) *roaring.Bitmap {
	keys := make([]string, 0, len(tables))
	for _, t := range tables {
		if t != "" {
			keys = append(keys, TableKey(t))
		}
	}
	return s.PatternIDs(keys)
}

// Examples materializes snapshots for every id in the bitmap, in ascending
// internal-id order (insertion order), which keeps downstream scoring
// deterministic.
func (s *Store) Examples(ids *roaring.Bitmap) []model.Example {
	if ids == nil || ids.IsEmpty() {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Example, 0, ids.GetCardinality())
	it := ids.Iterator()
	for it.HasNext() {
		if ex, ok := s.examples[it.Next()]; ok {
			out = append(out, *ex)
		}
	}
	return out
}

// TopQuality returns up to n examples with QualityScore >= minScore, best
// first. Ties are broken by external id so the fallback is deterministic.
func (s *Store) TopQuality(n int, minScore float64) []model.Example {
	if n <= 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates := make([]model.Example, 0, len(s.examples))
	for _, ex := range s.examples {
		if ex.QualityScore >= minScore {
			candidates = append(candidates, *ex)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].QualityScore != candidates[j].QualityScore {
			return candidates[i].QualityScore > candidates[j].QualityScore
		}
		return candidates[i].ID < candidates[j].ID
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}

// ApplyFeedback records one generation outcome against an example:
// the usage count increments, the success rate moves by exponential moving
// average, and the quality score drifts within [50,95]. It returns a
// snapshot of the updated example.
func (s *Store) ApplyFeedback(id string, success bool) (model.Example, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	internal, ok := s.byID[id]
	if !ok {
		return model.Example{}, fmt.Errorf("%w: %s", ErrUnknownExample, id)
	}
	ex := s.examples[internal]

	ex.UsageCount++

	outcome := 0.0
	if success {
		outcome = 100.0
	}
	ex.SuccessRate = 0.9*ex.SuccessRate + 0.1*outcome

	if ex.SuccessRate < 70 && ex.QualityScore > 60 {
		ex.QualityScore -= 5
		if ex.QualityScore < 50 {
			ex.QualityScore = 50
		}
	}
	if ex.SuccessRate > 90 && ex.QualityScore < 95 {
		ex.QualityScore += 2
		if ex.QualityScore > 95 {
			ex.QualityScore = 95
		}
	}

	ex.UpdatedAt = time.Now()

	return *ex, nil
}

// Stats describes the store's index shape.
type Stats struct {
	Examples    int
	Tokens      int
	PatternKeys int
}

// GetStats returns statistics about the store.
func (s *Store) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{
		Examples:    len(s.examples),
		Tokens:      len(s.keywords),
		PatternKeys: len(s.patterns),
	}
}
