package extractor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"post-call-insights-go/internal/llm"
	"post-call-insights-go/internal/logger"
	"post-call-insights-go/internal/schema"
	"post-call-insights-go/internal/types"
)

// Mode selects how the questions of one request are sent to the model.
type Mode string

const (
	// ModeSequential issues one call per question, in schema order.
	ModeSequential Mode = "sequential"
	// ModeParallel issues one call per question with bounded overlap.
	ModeParallel Mode = "parallel"
	// ModeBatched asks several questions per call.
	ModeBatched Mode = "batched"
)

// ParseMode parses a mode name, case-insensitively. Empty means sequential.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeSequential:
		return ModeSequential, nil
	case ModeParallel:
		return ModeParallel, nil
	case ModeBatched:
		return ModeBatched, nil
	}
	return "", fmt.Errorf("unknown extraction mode %q", s)
}

// Sampling settings used when Options leaves them unset.
const (
	DefaultTemperature     = 0.1
	DefaultMaxOutputTokens = 500
)

// Options tunes how an Extractor talks to its model.
type Options struct {
	Mode        Mode
	Concurrency int
	// BatchSize is the number of questions per call in batched mode; 0 sends
	// the whole schema at once.
	BatchSize int
	// Temperature is nil for DefaultTemperature. Zero is a valid setting.
	Temperature     *float64
	MaxOutputTokens int
}

// Temperature returns a pointer to t for Options.Temperature.
func Temperature(t float64) *float64 { return &t }

func (o Options) withDefaults() Options {
	if o.Mode == "" {
		o.Mode = ModeSequential
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 3
	}
	if o.Temperature == nil || *o.Temperature < 0 {
		o.Temperature = Temperature(DefaultTemperature)
	}
	if o.MaxOutputTokens <= 0 {
		o.MaxOutputTokens = DefaultMaxOutputTokens
	}
	return o
}

// Extractor runs the per-attribute extraction protocol for one model.
// It holds no per-request state and is safe for concurrent use if its
// Generator is.
type Extractor struct {
	llm    llm.Generator
	schema schema.Schema
	opts   Options
	log    *logger.Logger
}

// New returns an Extractor. A nil generator is the one fatal configuration
// error: no statistics can be produced without a model.
func New(gen llm.Generator, s schema.Schema, opts Options, log *logger.Logger) (*Extractor, error) {
	if gen == nil {
		return nil, fmt.Errorf("extractor: %w", llm.ErrNoClient)
	}
	if s.Len() == 0 {
		return nil, fmt.Errorf("extractor: %w: empty schema", schema.ErrInvalidSchema)
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Extractor{llm: gen, schema: s, opts: opts.withDefaults(), log: log.Component("extractor")}, nil
}

// blocks are the texts shared by every question of one request.
type blocks struct {
	conversation string
	tools        string
	failureNote  string
}

func (b blocks) noteFor(q schema.Question) string {
	if q.FailureRelated {
		return b.failureNote
	}
	return ""
}

// Answers extracts every attribute of the schema, keyed by question name.
// Per-attribute failures are replaced by defaults; only cancellation of ctx
// is returned as an error.
func (e *Extractor) Answers(ctx context.Context, req types.CallAnalysisRequest) (map[string]types.Value, error) {
	b := blocks{
		conversation: BuildConversationText(req.Conversation),
		tools:        BuildToolsText(req.ToolResults),
		failureNote:  FailureNote(FailureObserved(req)),
	}
	log := e.log.With("call_id", req.CallID)
	qs := e.schema.Questions()
	values := make([]types.Value, len(qs))

	switch e.opts.Mode {
	case ModeParallel:
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.opts.Concurrency)
		for i, q := range qs {
			g.Go(func() error {
				values[i] = e.extractOne(gctx, log, q, b)
				return nil
			})
		}
		_ = g.Wait()
	case ModeBatched:
		size := e.opts.BatchSize
		if size <= 0 || size > len(qs) {
			size = len(qs)
		}
		for start := 0; start < len(qs); start += size {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			end := min(start+size, len(qs))
			copy(values[start:end], e.extractGroup(ctx, log, qs[start:end], b))
		}
	default:
		for i, q := range qs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			values[i] = e.extractOne(ctx, log, q, b)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	answers := make(map[string]types.Value, len(qs))
	for i, q := range qs {
		answers[q.Name] = values[i]
	}
	return answers, nil
}

// Extract returns the CallStatistics of req.
func (e *Extractor) Extract(ctx context.Context, req types.CallAnalysisRequest) (types.CallStatistics, error) {
	answers, err := e.Answers(ctx, req)
	if err != nil {
		return types.CallStatistics{}, err
	}
	return StatisticsFrom(answers), nil
}

// Analyze extracts statistics and derives the problem, tags and summary.
func (e *Extractor) Analyze(ctx context.Context, req types.CallAnalysisRequest) (types.DetailedAnalysis, error) {
	start := time.Now()
	answers, err := e.Answers(ctx, req)
	if err != nil {
		return types.DetailedAnalysis{}, err
	}
	stats := StatisticsFrom(answers)
	out := Derive(stats)
	return types.DetailedAnalysis{
		CallID:          req.CallID,
		ProblemType:     out.ProblemType,
		ProblemDetected: out.ProblemDetected,
		Tags:            out.Tags,
		Summary:         out.Summary,
		Statistics:      stats,
		Answers:         answers,
		DurationMs:      time.Since(start).Milliseconds(),
	}, nil
}

func (e *Extractor) request(system, user string) llm.Request {
	return llm.Request{
		SystemPrompt:    system,
		UserPrompt:      user,
		Temperature:     *e.opts.Temperature,
		MaxOutputTokens: e.opts.MaxOutputTokens,
	}
}

func (e *Extractor) extractOne(ctx context.Context, log *logger.Logger, q schema.Question, b blocks) types.Value {
	qlog := log.With("question", q.Name)
	system, user := BuildPrompt(q, b.conversation, b.tools, b.noteFor(q))
	text, err := e.llm.Generate(ctx, e.request(system, user))
	if err != nil {
		qlog.WithError(err).Warn("llm call failed, using default")
		return DefaultFor(q)
	}
	obj, err := ExtractJSONObject(text)
	if err != nil {
		qlog.WithError(err).WithField("raw_len", len(text)).Warn("unparsable answer, using default")
		return DefaultFor(q)
	}
	raw, ok := obj[q.Name]
	v := Normalize(raw, ok, q)
	qlog.WithField("value", v.String()).Debug("attribute extracted")
	return v
}

func (e *Extractor) extractGroup(ctx context.Context, log *logger.Logger, qs []schema.Question, b blocks) []types.Value {
	out := make([]types.Value, len(qs))
	note := ""
	for _, q := range qs {
		if q.FailureRelated {
			note = b.failureNote
			break
		}
	}
	system, user := BuildBatchPrompt(qs, b.conversation, b.tools, note)
	text, err := e.llm.Generate(ctx, e.request(system, user))
	var obj map[string]types.Value
	if err == nil {
		obj, err = ExtractJSONObject(text)
	}
	if err != nil {
		log.WithError(err).WithField("questions", len(qs)).Warn("batched extraction failed, using defaults")
		for i, q := range qs {
			out[i] = DefaultFor(q)
		}
		return out
	}
	for i, q := range qs {
		raw, ok := obj[q.Name]
		out[i] = Normalize(raw, ok, q)
	}
	return out
}
