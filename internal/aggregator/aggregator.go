package aggregator

import (
	"sort"

	"post-call-insights-go/internal/batch"
)

type Insight struct {
	TotalCalls     int     `json:"total_calls"`
	Analyzed       int     `json:"analyzed"`
	Errors         int     `json:"errors"`
	WithProblem    int     `json:"with_problem"`
	WithoutProblem int     `json:"without_problem"`
	ProblemRate    float64 `json:"problem_rate"`

	ProblemRateByModel map[string]float64 `json:"problem_rate_by_model"`
	FailureCounts      map[string]int     `json:"failure_counts"`
	CallReasonCounts   map[string]int     `json:"call_reason_counts"`
	SentimentCounts    map[string]int     `json:"sentiment_counts"`
}

// Aggregate summarises a batch. Rates are over successfully analyzed calls;
// errored rows only count towards TotalCalls and Errors.
func Aggregate(results []batch.Result) Insight {
	ins := Insight{
		TotalCalls:         len(results),
		ProblemRateByModel: map[string]float64{},
		FailureCounts:      map[string]int{},
		CallReasonCounts:   map[string]int{},
		SentimentCounts:    map[string]int{},
	}
	total := map[string]int{}
	withProblem := map[string]int{}
	for _, r := range results {
		if !r.OK() {
			ins.Errors++
			continue
		}
		a := r.Analysis
		ins.Analyzed++
		total[r.Model]++
		if a.ProblemDetected {
			ins.WithProblem++
			withProblem[r.Model]++
		}
		for _, tag := range a.Statistics.FailureReasons {
			ins.FailureCounts[tag]++
		}
		if a.Statistics.CallReason != nil {
			ins.CallReasonCounts[*a.Statistics.CallReason]++
		}
		if a.Statistics.UserSentiment != nil {
			ins.SentimentCounts[*a.Statistics.UserSentiment]++
		}
	}
	ins.WithoutProblem = ins.Analyzed - ins.WithProblem
	if ins.Analyzed > 0 {
		ins.ProblemRate = float64(ins.WithProblem) / float64(ins.Analyzed)
	}
	for m, n := range total {
		ins.ProblemRateByModel[m] = float64(withProblem[m]) / float64(n)
	}
	return ins
}

type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Top returns the n largest entries of counts, ties broken by key. n <= 0
// returns every entry.
func Top(counts map[string]int, n int) []Count {
	out := make([]Count, 0, len(counts))
	for k, v := range counts {
		out = append(out, Count{k, v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
