// Package lexical implements Agrama's BM25 keyword index: an in-memory
// inverted index over tokenized documents, scored with standard BM25.
//
// The index/search boundary is a single guarded struct exposing Index
// and Search, built as a direct, dependency-free inverted index rather
// than delegating to an external full-text engine, so scoring stays
// in-process with no external service dependency.
package lexical

import (
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// Params configures an Index's BM25 scoring constants and tokenizer.
type Params struct {
	K1 float64 // default 1.2
	B  float64 // default 0.75

	// StopWords, if non-nil, are excluded from both indexing and querying.
	StopWords map[string]bool
}

// DefaultParams returns the conventional default BM25 constants with no
// stop-word filtering.
func DefaultParams() Params {
	return Params{K1: 1.2, B: 0.75}
}

type posting struct {
	docKey string
	tf     int
}

// Index is an in-memory inverted index with incrementally maintained
// document-length statistics.
type Index struct {
	mu     sync.RWMutex
	params Params

	postings  map[string][]posting // term -> postings
	docLen    map[string]int       // doc_key -> token count
	totalLen  int
	docCount  int
}

// New creates an empty Index.
func New(p Params) *Index {
	if p.K1 == 0 {
		p.K1 = 1.2
	}
	return &Index{
		params:   p,
		postings: make(map[string][]posting),
		docLen:   make(map[string]int),
	}
}

// Tokenize splits text the same way at index and query time: Unicode-aware
// whitespace/punctuation splitting, lowercased, with stop words (if
// configured) removed.
func (ix *Index) Tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		lower := strings.ToLower(f)
		if ix.params.StopWords != nil && ix.params.StopWords[lower] {
			continue
		}
		out = append(out, lower)
	}
	return out
}

// Index tokenizes text and adds (or replaces) the postings for docKey.
func (ix *Index) Index(docKey, text string) {
	tokens := ix.Tokenize(text)

	tf := make(map[string]int, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.removeLocked(docKey)

	for term, count := range tf {
		ix.postings[term] = append(ix.postings[term], posting{docKey: docKey, tf: count})
	}
	ix.docLen[docKey] = len(tokens)
	ix.totalLen += len(tokens)
	ix.docCount++
}

// removeLocked drops any existing postings for docKey, used so re-indexing
// the same key doesn't double-count it in the averages.
func (ix *Index) removeLocked(docKey string) {
	oldLen, existed := ix.docLen[docKey]
	if !existed {
		return
	}
	for term, posts := range ix.postings {
		out := posts[:0]
		for _, p := range posts {
			if p.docKey != docKey {
				out = append(out, p)
			}
		}
		if len(out) == 0 {
			delete(ix.postings, term)
		} else {
			ix.postings[term] = out
		}
	}
	delete(ix.docLen, docKey)
	ix.totalLen -= oldLen
	ix.docCount--
}

// Result is one ranked BM25 hit.
type Result struct {
	DocKey        string
	Score         float64
	MatchingTerms []string
}

// Search tokenizes query the same way as Index and returns the top k
// documents by BM25 score, descending.
func (ix *Index) Search(query string, k int) []Result {
	terms := ix.Tokenize(query)

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.docCount == 0 || len(terms) == 0 {
		return nil
	}
	avgLen := float64(ix.totalLen) / float64(ix.docCount)

	scores := make(map[string]float64)
	matches := make(map[string]map[string]bool)

	seenTerm := make(map[string]bool)
	for _, term := range terms {
		if seenTerm[term] {
			continue
		}
		seenTerm[term] = true

		posts := ix.postings[term]
		if len(posts) == 0 {
			continue
		}
		idf := bm25IDF(ix.docCount, len(posts))

		for _, p := range posts {
			docLen := float64(ix.docLen[p.docKey])
			tf := float64(p.tf)
			k1, b := ix.params.K1, ix.params.B
			denom := tf + k1*(1-b+b*docLen/avgLen)
			score := idf * (tf * (k1 + 1)) / denom
			scores[p.docKey] += score

			if matches[p.docKey] == nil {
				matches[p.docKey] = make(map[string]bool)
			}
			matches[p.docKey][term] = true
		}
	}

	results := make([]Result, 0, len(scores))
	for doc, score := range scores {
		terms := make([]string, 0, len(matches[doc]))
		for t := range matches[doc] {
			terms = append(terms, t)
		}
		sort.Strings(terms)
		results = append(results, Result{DocKey: doc, Score: score, MatchingTerms: terms})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocKey < results[j].DocKey // stable tie-break
	})

	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results
}

// bm25IDF computes the standard BM25 inverse document frequency term.
func bm25IDF(totalDocs, docsWithTerm int) float64 {
	return math.Log(1 + (float64(totalDocs)-float64(docsWithTerm)+0.5)/(float64(docsWithTerm)+0.5))
}

// Remove drops docKey from the index entirely.
func (ix *Index) Remove(docKey string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(docKey)
}

// DocCount returns the number of indexed documents.
func (ix *Index) DocCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.docCount
}
