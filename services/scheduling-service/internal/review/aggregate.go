package review

import "math"

// Summary describes a doctor's visible-review aggregate.
type Summary struct {
	Count        int         `json:"count"`
	Average      float64     `json:"average"`
	Distribution map[int]int `json:"distribution"`
}

// Summarize computes count, average rounded to two decimals, and the
// per-star distribution. An empty input yields a zero average.
func Summarize(ratings []int) Summary {
	s := Summary{Distribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	if len(ratings) == 0 {
		return s
	}
	total := 0
	for _, n := range ratings {
		total += n
		s.Distribution[n]++
	}
	s.Count = len(ratings)
	s.Average = math.Round(float64(total)/float64(len(ratings))*100) / 100
	return s
}
