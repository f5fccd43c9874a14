package engine

import (
	"errors"
	"math"
	"testing"
)

func TestVectorizeDeterministic(t *testing.T) {
	v := NewNgramVectorizer(512)
	batch := []string{"uses ad hominem", "relies on ad hominem attacks", "misquotes statistics"}

	first, err := v.Vectorize(batch)
	if err != nil {
		t.Fatalf("Vectorize: %v", err)
	}
	second, err := v.Vectorize(batch)
	if err != nil {
		t.Fatalf("Vectorize: %v", err)
	}

	for i := range first {
		if len(first[i]) != len(second[i]) {
			t.Fatalf("vector %d: dims %d vs %d", i, len(first[i]), len(second[i]))
		}
		for j := range first[i] {
			if first[i][j] != second[i][j] {
				t.Fatalf("vector %d differs at %d: %v vs %v", i, j, first[i][j], second[i][j])
			}
		}
	}
}

func TestVectorizeSimilarityOrdering(t *testing.T) {
	v := NewNgramVectorizer(512)
	vecs, err := v.Vectorize([]string{
		"uses ad hominem",
		"uses ad hominem attacks",
		"cites outdated statistics",
	})
	if err != nil {
		t.Fatalf("Vectorize: %v", err)
	}

	similar := CosineSimilarity(vecs[0], vecs[1])
	dissimilar := CosineSimilarity(vecs[0], vecs[2])

	if similar <= dissimilar {
		t.Errorf("similar pair %.3f should outscore dissimilar pair %.3f", similar, dissimilar)
	}
	if round2(similar) < similarityThreshold {
		t.Errorf("near-duplicate rule text scored %.2f, expected >= %.2f", round2(similar), similarityThreshold)
	}
	if round2(dissimilar) >= similarityThreshold {
		t.Errorf("unrelated rule text scored %.2f, expected < %.2f", round2(dissimilar), similarityThreshold)
	}
}

func TestVectorizeIdenticalTexts(t *testing.T) {
	v := NewNgramVectorizer(512)
	vecs, err := v.Vectorize([]string{"uses ad hominem", "uses ad hominem"})
	if err != nil {
		t.Fatal(err)
	}
	if sim := CosineSimilarity(vecs[0], vecs[1]); math.Abs(sim-1.0) > 1e-9 {
		t.Errorf("identical texts similarity = %v, want 1.0", sim)
	}
}

func TestVectorizeBigramsDiscriminate(t *testing.T) {
	// Same unigrams, different word order: bigrams should keep these apart
	v := NewNgramVectorizer(512)
	vecs, err := v.Vectorize([]string{"dog bites man", "man bites dog"})
	if err != nil {
		t.Fatal(err)
	}
	if sim := CosineSimilarity(vecs[0], vecs[1]); sim >= 1.0 {
		t.Errorf("reordered texts similarity = %v, want < 1.0", sim)
	}
}

func TestVectorizeDegenerateInput(t *testing.T) {
	v := NewNgramVectorizer(512)

	if _, err := v.Vectorize(nil); !errors.Is(err, ErrVectorization) {
		t.Errorf("empty batch: err = %v, want ErrVectorization", err)
	}
	if _, err := v.Vectorize([]string{"", "   ", "!!!"}); !errors.Is(err, ErrVectorization) {
		t.Errorf("tokenless batch: err = %v, want ErrVectorization", err)
	}
}

func TestVectorizeEmptyCandidateAmongRealTexts(t *testing.T) {
	// A single degenerate text in an otherwise valid batch yields a zero
	// vector, which scores 0 against everything.
	v := NewNgramVectorizer(512)
	vecs, err := v.Vectorize([]string{"", "uses ad hominem"})
	if err != nil {
		t.Fatalf("Vectorize: %v", err)
	}
	if sim := CosineSimilarity(vecs[0], vecs[1]); sim != 0 {
		t.Errorf("zero-vector similarity = %v, want 0", sim)
	}
}

func TestVectorizeVocabularyCap(t *testing.T) {
	v := NewNgramVectorizer(4)
	vecs, err := v.Vectorize([]string{"alpha beta gamma delta epsilon zeta"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs[0]) != 4 {
		t.Errorf("dims = %d, want cap 4", len(vecs[0]))
	}
}

func TestCosineSimilarityZeroNorm(t *testing.T) {
	if sim := CosineSimilarity([]float64{0, 0}, []float64{1, 2}); sim != 0 {
		t.Errorf("zero-norm similarity = %v, want 0", sim)
	}
	if sim := CosineSimilarity([]float64{1}, []float64{1, 2}); sim != 0 {
		t.Errorf("mismatched-length similarity = %v, want 0", sim)
	}
	if sim := CosineSimilarity(nil, nil); sim != 0 {
		t.Errorf("nil similarity = %v, want 0", sim)
	}
}

func TestRound2(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0.795, 0.8},
		{0.794, 0.79},
		{0.8000001, 0.8},
		{0.1, 0.1},
		{1.0, 1.0},
	}
	for _, c := range cases {
		if got := round2(c.in); got != c.want {
			t.Errorf("round2(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
