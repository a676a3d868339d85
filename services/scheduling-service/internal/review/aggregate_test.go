package review

import "testing"

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.Count != 0 {
		t.Fatalf("expected count 0, got %d", s.Count)
	}
	if s.Average != 0 {
		t.Fatalf("expected average 0, got %v", s.Average)
	}
	for star := 1; star <= 5; star++ {
		if s.Distribution[star] != 0 {
			t.Fatalf("expected empty distribution, got %v", s.Distribution)
		}
	}
}

func TestSummarizeAverageRounding(t *testing.T) {
	s := Summarize([]int{5, 4, 4})
	if s.Count != 3 {
		t.Fatalf("expected count 3, got %d", s.Count)
	}
	if s.Average != 4.33 {
		t.Fatalf("expected average 4.33, got %v", s.Average)
	}
}

func TestSummarizeDistribution(t *testing.T) {
	s := Summarize([]int{1, 5, 5, 3, 5})
	if s.Distribution[5] != 3 || s.Distribution[3] != 1 || s.Distribution[1] != 1 {
		t.Fatalf("unexpected distribution %v", s.Distribution)
	}
	if s.Distribution[2] != 0 || s.Distribution[4] != 0 {
		t.Fatalf("expected zero buckets for unused stars, got %v", s.Distribution)
	}
}

func TestSummarizeSingleRating(t *testing.T) {
	s := Summarize([]int{2})
	if s.Count != 1 || s.Average != 2 {
		t.Fatalf("expected count 1 average 2, got %+v", s)
	}
}
