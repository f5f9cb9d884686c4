package batch

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"post-call-insights-go/internal/logger"
	"post-call-insights-go/internal/types"
)

// DefaultWorkers caps the number of calls analyzed at once.
const DefaultWorkers = 20

// Analyzer analyzes one call with one model.
type Analyzer interface {
	AnalyzeCallID(ctx context.Context, callID, model string) (types.DetailedAnalysis, error)
}

// Task is one (call, model) pair; Seq is its 1-based position in the plan.
type Task struct {
	Seq    int    `json:"seq"`
	CallID string `json:"call_id"`
	Model  string `json:"model_used"`
}

// Result is the outcome of a Task. Exactly one of Analysis and Error is set.
type Result struct {
	Task
	Analysis  *types.DetailedAnalysis `json:"analysis,omitempty"`
	Error     string                  `json:"error,omitempty"`
	Timestamp time.Time               `json:"timestamp"`
}

func (r Result) OK() bool { return r.Analysis != nil }

// Plan crosses call ids with models, dropping blanks and duplicate pairs
// while keeping first-seen order.
func Plan(callIDs, models []string) []Task {
	ids := unique(callIDs)
	ms := unique(models)
	tasks := make([]Task, 0, len(ids)*len(ms))
	for _, id := range ids {
		for _, m := range ms {
			tasks = append(tasks, Task{Seq: len(tasks) + 1, CallID: id, Model: m})
		}
	}
	return tasks
}

func unique(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

type Options struct {
	Workers int
	// OnResult is called after each task, serialized, with the number of
	// finished tasks.
	OnResult func(done, total int, r Result)
}

// Run analyzes tasks on a bounded worker pool. A failed call is recorded in
// its Result and never stops the batch; only ctx cancellation does, in
// which case the results gathered so far are returned with ctx.Err().
// Results come back in plan order.
func Run(ctx context.Context, a Analyzer, tasks []Task, opts Options, log *logger.Logger) ([]Result, error) {
	if log == nil {
		log = logger.Discard()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	workers = min(workers, max(len(tasks), 1))
	runLog := log.Component("batch").With("run_id", uuid.NewString())
	runLog.WithFields(logrus.Fields{"tasks": len(tasks), "workers": workers}).Info("batch started")

	results := make([]Result, len(tasks))
	finished := make([]bool, len(tasks))
	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, task := range tasks {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := Result{Task: task}
			analysis, err := a.AnalyzeCallID(gctx, task.CallID, task.Model)
			r.Timestamp = time.Now()
			taskLog := runLog.WithFields(logrus.Fields{"seq": task.Seq, "call_id": task.CallID, "model": task.Model})
			if err != nil {
				r.Error = err.Error()
				taskLog.WithError(err).Warn("call analysis failed")
			} else {
				r.Analysis = &analysis
				taskLog.WithField("problem_detected", analysis.ProblemDetected).Info("call analyzed")
			}

			mu.Lock()
			results[i] = r
			finished[i] = true
			done++
			if opts.OnResult != nil {
				opts.OnResult(done, len(tasks), r)
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		partial := make([]Result, 0, done)
		for i, ok := range finished {
			if ok {
				partial = append(partial, results[i])
			}
		}
		runLog.WithField("finished", len(partial)).Warn("batch interrupted")
		return partial, err
	}
	runLog.Info("batch finished")
	return results, nil
}
