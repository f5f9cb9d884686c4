package processor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"post-call-insights-go/internal/llm"
	"post-call-insights-go/internal/rounded"
	"post-call-insights-go/internal/types"
)

type fakeSource map[string]types.CallAnalysisRequest

func (f fakeSource) FetchRequest(_ context.Context, id string) (types.CallAnalysisRequest, error) {
	req, ok := f[id]
	if !ok {
		return types.CallAnalysisRequest{}, rounded.ErrCallUnavailable
	}
	return req, nil
}

func failedCall(id string) types.CallAnalysisRequest {
	return types.CallAnalysisRequest{
		CallID:       id,
		Conversation: []types.ConversationTurn{{Role: "user", Content: "Je voudrais annuler mon rendez-vous"}},
		ToolResults: []types.ToolOutcome{
			{ToolName: "search_patient", Success: false, ErrorMessage: types.StrPtr("patient_non_trouve")},
		},
	}
}

func mockFactory(built *atomic.Int32) GeneratorFactory {
	return func(model string) (llm.Generator, error) {
		if built != nil {
			built.Add(1)
		}
		return llm.New(model, llm.Settings{UseMock: true}, nil)
	}
}

func TestAnalyzeCallIDWithMock(t *testing.T) {
	var built atomic.Int32
	svc, err := New(Settings{
		Source:     fakeSource{"c-1": failedCall("c-1")},
		Generators: mockFactory(&built),
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	got, err := svc.AnalyzeCallID(context.Background(), "c-1", "")
	if err != nil {
		t.Fatalf("AnalyzeCallID: %v", err)
	}
	if got.Model != "gpt-4.1" || got.CallID != "c-1" {
		t.Fatalf("unexpected report header: %+v", got)
	}
	if !got.ProblemDetected || got.ProblemType != "patient_non_trouve" {
		t.Fatalf("unexpected outcome: %+v", got)
	}
	if got.Statistics.CallReason == nil || *got.Statistics.CallReason != "cancel_appointment" {
		t.Fatalf("call_reason = %v", got.Statistics.CallReason)
	}

	if _, err := svc.AnalyzeCallID(context.Background(), "c-1", "gpt-4.1"); err != nil {
		t.Fatal(err)
	}
	if built.Load() != 1 {
		t.Fatalf("generator built %d times, want 1", built.Load())
	}
}

func TestAnalyzeCallIDErrors(t *testing.T) {
	svc, err := New(Settings{Source: fakeSource{}, Generators: mockFactory(nil)}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AnalyzeCallID(context.Background(), "nope", ""); !errors.Is(err, rounded.ErrCallUnavailable) {
		t.Fatalf("err = %v, want ErrCallUnavailable", err)
	}
	if _, err := svc.AnalyzeCallID(context.Background(), "  ", ""); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}

	noSource, _ := New(Settings{Generators: mockFactory(nil)}, nil)
	if _, err := noSource.AnalyzeCallID(context.Background(), "c-1", ""); !errors.Is(err, rounded.ErrCallUnavailable) {
		t.Fatalf("err = %v, want ErrCallUnavailable", err)
	}
}

func TestAnalyzeCallClientError(t *testing.T) {
	svc, err := New(Settings{
		Generators: func(model string) (llm.Generator, error) {
			return llm.New(model, llm.Settings{}, nil)
		},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = svc.AnalyzeCall(context.Background(), failedCall("c-2"), "gpt-4.1")
	if !errors.Is(err, llm.ErrNoClient) {
		t.Fatalf("err = %v, want ErrNoClient", err)
	}
	_, err = svc.AnalyzeCall(context.Background(), failedCall("c-2"), "llama")
	if !errors.Is(err, llm.ErrUnknownModel) {
		t.Fatalf("err = %v, want ErrUnknownModel", err)
	}
}

func TestNewRequiresFactory(t *testing.T) {
	if _, err := New(Settings{}, nil); !errors.Is(err, llm.ErrNoClient) {
		t.Fatalf("err = %v", err)
	}
}
