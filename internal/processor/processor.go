package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"post-call-insights-go/internal/extractor"
	"post-call-insights-go/internal/llm"
	"post-call-insights-go/internal/logger"
	"post-call-insights-go/internal/rounded"
	"post-call-insights-go/internal/schema"
	"post-call-insights-go/internal/types"
)

// ErrInvalidRequest is returned for requests that cannot be analyzed.
var ErrInvalidRequest = errors.New("invalid analysis request")

// CallSource resolves a call id into an analysis request.
type CallSource interface {
	FetchRequest(ctx context.Context, callID string) (types.CallAnalysisRequest, error)
}

// GeneratorFactory builds the LLM client for a model name.
type GeneratorFactory func(model string) (llm.Generator, error)

// Settings wires a Service.
type Settings struct {
	Source       CallSource
	Generators   GeneratorFactory
	Schema       schema.Schema
	Extraction   extractor.Options
	DefaultModel string
}

// Service analyzes calls. One extractor is built per model on first use and
// reused afterwards; extractors are stateless between requests.
type Service struct {
	source       CallSource
	generators   GeneratorFactory
	schema       schema.Schema
	opts         extractor.Options
	defaultModel string
	log          *logger.Logger

	mu         sync.Mutex
	extractors map[string]*extractor.Extractor
}

func New(s Settings, log *logger.Logger) (*Service, error) {
	if s.Generators == nil {
		return nil, fmt.Errorf("processor: %w: no generator factory", llm.ErrNoClient)
	}
	if s.Schema.Len() == 0 {
		s.Schema = schema.Default()
	}
	if s.DefaultModel == "" {
		s.DefaultModel = "gpt-4.1"
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		source:       s.Source,
		generators:   s.Generators,
		schema:       s.Schema,
		opts:         s.Extraction,
		defaultModel: s.DefaultModel,
		log:          log.Component("processor"),
		extractors:   map[string]*extractor.Extractor{},
	}, nil
}

func (s *Service) DefaultModel() string { return s.defaultModel }

func (s *Service) modelOrDefault(model string) string {
	if m := strings.TrimSpace(model); m != "" {
		return m
	}
	return s.defaultModel
}

func (s *Service) extractorFor(model string) (*extractor.Extractor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.extractors[model]; ok {
		return e, nil
	}
	gen, err := s.generators(model)
	if err != nil {
		return nil, err
	}
	e, err := extractor.New(gen, s.schema, s.opts, s.log)
	if err != nil {
		return nil, err
	}
	s.extractors[model] = e
	return e, nil
}

// AnalyzeCall runs the extraction protocol on req with model (or the
// default model when empty).
func (s *Service) AnalyzeCall(ctx context.Context, req types.CallAnalysisRequest, model string) (types.DetailedAnalysis, error) {
	if strings.TrimSpace(req.CallID) == "" {
		return types.DetailedAnalysis{}, fmt.Errorf("%w: missing call_id", ErrInvalidRequest)
	}
	model = s.modelOrDefault(model)
	log := s.log.WithFields(logrus.Fields{"call_id": req.CallID, "model": model})

	e, err := s.extractorFor(model)
	if err != nil {
		log.WithError(err).Error("llm client unavailable")
		return types.DetailedAnalysis{}, err
	}

	start := time.Now()
	analysis, err := e.Analyze(ctx, req)
	if err != nil {
		log.WithError(err).Warn("analysis interrupted")
		return types.DetailedAnalysis{}, err
	}
	analysis.Model = model
	analysis.DurationMs = time.Since(start).Milliseconds()

	if analysis.ProblemDetected {
		log.WithField("failure_reasons", strings.Join(analysis.Tags, ", ")).Info("analysis finished, problem detected")
	} else {
		log.Info("analysis finished, no problem detected")
	}
	return analysis, nil
}

// AnalyzeCallID fetches the call from the call source and analyzes it.
func (s *Service) AnalyzeCallID(ctx context.Context, callID, model string) (types.DetailedAnalysis, error) {
	callID = strings.TrimSpace(callID)
	if callID == "" {
		return types.DetailedAnalysis{}, fmt.Errorf("%w: missing call_id", ErrInvalidRequest)
	}
	if s.source == nil {
		return types.DetailedAnalysis{}, fmt.Errorf("%w: no call source configured", rounded.ErrCallUnavailable)
	}
	req, err := s.source.FetchRequest(ctx, callID)
	if err != nil {
		return types.DetailedAnalysis{}, err
	}
	return s.AnalyzeCall(ctx, req, model)
}
