package engine

import (
	"errors"
	"math"
	"sort"
	"strings"
)

// ErrVectorization signals that the vectorizer could not process the current
// batch. Callers recover by falling back to exact-string matching; the error
// never surfaces past the engine.
var ErrVectorization = errors.New("vectorization unavailable")

// Vectorizer maps a batch of texts into fixed-dimension feature vectors
// suitable for cosine comparison. Implementations must be deterministic:
// the same batch always produces the same vectors.
type Vectorizer interface {
	Vectorize(texts []string) ([][]float64, error)
}

// NgramVectorizer builds sparse term-frequency vectors over unigrams and
// adjacent-word bigrams. The vocabulary is derived per batch from the texts
// being compared, capped at maxTerms to guard against pathological input.
type NgramVectorizer struct {
	maxTerms int
}

// NewNgramVectorizer creates a vectorizer with the given vocabulary cap.
func NewNgramVectorizer(maxTerms int) *NgramVectorizer {
	if maxTerms <= 0 {
		maxTerms = 512
	}
	return &NgramVectorizer{maxTerms: maxTerms}
}

// Vectorize featurizes the batch. Returns ErrVectorization if no text in the
// batch produces any tokens (e.g. empty or all-punctuation input).
func (v *NgramVectorizer) Vectorize(texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, ErrVectorization
	}

	// Per-text term frequencies over unigrams + bigrams
	counts := make([]map[string]int, len(texts))
	total := make(map[string]int)
	any := false
	for i, text := range texts {
		tf := make(map[string]int)
		for _, term := range ngrams(text) {
			tf[term]++
			total[term]++
		}
		if len(tf) > 0 {
			any = true
		}
		counts[i] = tf
	}
	if !any {
		return nil, ErrVectorization
	}

	// Deterministic vocabulary: batch frequency descending, term ascending
	type termFreq struct {
		term string
		freq int
	}
	terms := make([]termFreq, 0, len(total))
	for t, f := range total {
		terms = append(terms, termFreq{t, f})
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].freq != terms[j].freq {
			return terms[i].freq > terms[j].freq
		}
		return terms[i].term < terms[j].term
	})

	dims := v.maxTerms
	if len(terms) < dims {
		dims = len(terms)
	}
	vocab := make([]string, dims)
	for i := 0; i < dims; i++ {
		vocab[i] = terms[i].term
	}

	vectors := make([][]float64, len(texts))
	for i, tf := range counts {
		vec := make([]float64, dims)
		for j, term := range vocab {
			if c := tf[term]; c > 0 {
				vec[j] = float64(c)
			}
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// ngrams produces unigram and adjacent-bigram terms for a text.
func ngrams(text string) []string {
	words := tokenize(text)
	terms := make([]string, 0, len(words)*2)
	terms = append(terms, words...)
	for i := 0; i+1 < len(words); i++ {
		terms = append(terms, words[i]+" "+words[i+1])
	}
	return terms
}

// tokenize splits text into lowercase word tokens, stripping punctuation.
func tokenize(text string) []string {
	text = strings.ToLower(text)
	var tokens []string
	var current strings.Builder
	for _, r := range text {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '\'' {
			current.WriteRune(r)
		} else {
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
			}
			current.Reset()
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

// CosineSimilarity computes the cosine similarity between two vectors.
// Zero-norm or mismatched vectors score 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return dot / denom
}

// round2 rounds to 2 decimal places. Strengths and similarity scores are
// always compared and stored at this precision to avoid float flapping
// around thresholds.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
