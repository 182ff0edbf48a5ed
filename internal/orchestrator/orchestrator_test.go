package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/valpere/lexitran/internal"
	"github.com/valpere/lexitran/internal/glossary"
	"github.com/valpere/lexitran/internal/llm"
	"github.com/valpere/lexitran/internal/tools"
)

// scriptedModel replays canned responses and records every request.
type scriptedModel struct {
	mu        sync.Mutex
	responses []func(llm.Request) (*llm.Response, error)
	requests  []llm.Request
}

func (m *scriptedModel) Name() string { return "scripted" }

func (m *scriptedModel) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, cloneRequest(req))
	if len(m.responses) == 0 {
		return nil, errors.New("script exhausted")
	}
	next := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return next(req)
}

func cloneRequest(req llm.Request) llm.Request {
	req.Messages = append([]llm.Message(nil), req.Messages...)
	return req
}

func answer(text string) func(llm.Request) (*llm.Response, error) {
	return func(llm.Request) (*llm.Response, error) { return &llm.Response{Text: text}, nil }
}

func call(calls ...llm.ToolCall) func(llm.Request) (*llm.Response, error) {
	return func(llm.Request) (*llm.Response, error) { return &llm.Response{ToolCalls: calls}, nil }
}

func fail(err error) func(llm.Request) (*llm.Response, error) {
	return func(llm.Request) (*llm.Response, error) { return nil, err }
}

type stubRetriever struct{ pairs []internal.ExamplePair }

func (s stubRetriever) Retrieve(context.Context, string) []internal.ExamplePair { return s.pairs }

type stubCritic struct{}

func (stubCritic) Critique(_ context.Context, source, translation string) (string, error) {
	return "Formal tone is appropriate.", nil
}

type stubChecker struct{ ok bool }

func (s stubChecker) Check(string) error {
	if s.ok {
		return nil
	}
	return errors.New("translation is not in Telugu script: 0% Telugu letters, detected EN")
}

func newRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	reg, err := tools.NewDefault(
		stubRetriever{pairs: []internal.ExamplePair{{SourceText: "The rent is due.", TargetText: "అద్దె చెల్లించవలసి ఉంది."}}},
		glossary.FromPairs("lessee", "బాడిగెదారు"),
		stubCritic{},
		nil,
	)
	require.NoError(t, err)
	return reg
}

func toolCall(id, name, args string) llm.ToolCall {
	return llm.ToolCall{ID: id, Name: name, Arguments: json.RawMessage(args)}
}

func TestTranslate_DirectAnswer(t *testing.T) {
	model := &scriptedModel{responses: []func(llm.Request) (*llm.Response, error){answer("ఈ నిబంధన చెల్లదు. ")}}
	o := New(model, newRegistry(t), Config{}, nil)

	res, err := o.Translate(context.Background(), 0, "This clause is void.")

	require.NoError(t, err)
	assert.Equal(t, internal.StateCompleted, res.State)
	assert.Equal(t, "ఈ నిబంధన చెల్లదు. ", res.TranslatedSentence, "final answer is used verbatim")
	assert.Equal(t, 1, res.Iterations)

	require.Len(t, model.requests, 1)
	req := model.requests[0]
	assert.Equal(t, SystemPrompt, req.System)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "English: This clause is void.", req.Messages[0].Content)
	assert.Len(t, req.Tools, 3)
}

func TestTranslate_ToolLoop(t *testing.T) {
	model := &scriptedModel{responses: []func(llm.Request) (*llm.Response, error){
		call(toolCall("c1", tools.NameExamples, `{"sentence":"The lessee shall pay rent."}`)),
		call(
			toolCall("c2", tools.NameGlossary, `{"original":"The lessee shall pay rent.","translation":"అద్దెదారు అద్దె చెల్లించవలెను."}`),
			toolCall("c3", tools.NameCritique, `{"original":"The lessee shall pay rent.","translation":"అద్దెదారు అద్దె చెల్లించవలెను."}`),
		),
		answer("బాడిగెదారు అద్దె చెల్లించవలెను."),
	}}
	o := New(model, newRegistry(t), Config{}, nil)

	res, err := o.Translate(context.Background(), 3, "The lessee shall pay rent.")

	require.NoError(t, err)
	assert.Equal(t, 3, res.Index)
	assert.Equal(t, "బాడిగెదారు అద్దె చెల్లించవలెను.", res.TranslatedSentence)
	assert.Equal(t, 3, res.Iterations)
	assert.Equal(t, []string{tools.NameExamples, tools.NameGlossary, tools.NameCritique}, res.ToolCalls)
	assert.Equal(t, []string{"Term 'lessee' found in English but Telugu equivalent 'బాడిగెదారు' not found in translation."}, res.GlossaryIssues)
	assert.Equal(t, "Formal tone is appropriate.", res.Critique)

	// Third request carries: user, assistant(c1), tool(c1), assistant(c2,c3), tool(c2), tool(c3).
	last := model.requests[2].Messages
	require.Len(t, last, 6)
	assert.Equal(t, llm.RoleTool, last[2].Role)
	assert.Equal(t, "c1", last[2].ToolCallID)
	assert.Contains(t, last[2].Content, "అద్దె చెల్లించవలసి ఉంది.")
	assert.Equal(t, "c3", last[5].ToolCallID)
	assert.Equal(t, tools.NameCritique, last[5].ToolName)
}

func TestTranslate_ToolFailureIsObservation(t *testing.T) {
	model := &scriptedModel{responses: []func(llm.Request) (*llm.Response, error){
		call(toolCall("c1", "google_translate", `{}`)),
		answer("కౌలుదారు"),
	}}
	o := New(model, newRegistry(t), Config{}, nil)

	res, err := o.Translate(context.Background(), 0, "The lessee shall pay rent.")

	require.NoError(t, err)
	assert.Equal(t, internal.StateCompleted, res.State)
	obs := model.requests[1].Messages[2]
	assert.True(t, strings.HasPrefix(obs.Content, "Error: "), obs.Content)
}

func TestTranslate_ModelErrorEmitsMarker(t *testing.T) {
	boom := errors.New("503 service unavailable")
	model := &scriptedModel{responses: []func(llm.Request) (*llm.Response, error){fail(boom)}}
	o := New(model, newRegistry(t), Config{}, nil)

	res, err := o.Translate(context.Background(), 2, "The lessee shall pay rent.")

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	var sErr *SentenceError
	require.True(t, errors.As(err, &sErr))
	assert.Equal(t, 2, sErr.Index)

	assert.True(t, res.Failed())
	assert.Equal(t, "[Translation Error: The lessee shall pay rent.]", res.TranslatedSentence)
	assert.Contains(t, res.Error, "503")
}

func TestTranslate_IterationLimit(t *testing.T) {
	model := &scriptedModel{responses: []func(llm.Request) (*llm.Response, error){
		call(toolCall("c", tools.NameExamples, `{"sentence":"again"}`)),
	}}
	o := New(model, newRegistry(t), Config{MaxIterations: 3}, nil)

	res, err := o.Translate(context.Background(), 0, "The lessee shall pay rent.")

	assert.ErrorIs(t, err, ErrIterationLimit)
	assert.Len(t, model.requests, 3)
	assert.Equal(t, 3, res.Iterations)
	assert.Equal(t, ErrorMarker("The lessee shall pay rent."), res.TranslatedSentence)
}

func TestNew_DefaultIterationCap(t *testing.T) {
	o := New(&scriptedModel{}, newRegistry(t), Config{}, nil)
	assert.Equal(t, DefaultMaxIterations, o.config.MaxIterations)
}

func TestTranslate_EmptyAnswerFails(t *testing.T) {
	model := &scriptedModel{responses: []func(llm.Request) (*llm.Response, error){answer("  \n")}}
	o := New(model, newRegistry(t), Config{}, nil)

	res, err := o.Translate(context.Background(), 0, "The lessee shall pay rent.")

	assert.ErrorIs(t, err, ErrEmptyResponse)
	assert.True(t, res.Failed())
}

func TestTranslate_TimeoutFailsSentence(t *testing.T) {
	model := &scriptedModel{responses: []func(llm.Request) (*llm.Response, error){
		func(llm.Request) (*llm.Response, error) {
			time.Sleep(50 * time.Millisecond)
			return &llm.Response{ToolCalls: []llm.ToolCall{toolCall("c", tools.NameExamples, `{"sentence":"x"}`)}}, nil
		},
	}}
	o := New(model, newRegistry(t), Config{SentenceTimeout: 20 * time.Millisecond}, nil)

	res, err := o.Translate(context.Background(), 0, "The lessee shall pay rent.")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, res.Failed())
}

func TestTranslate_Sanitize(t *testing.T) {
	raw := "Here is the Telugu translation: కౌలుదారు అద్దె చెల్లించవలెను."

	tests := []struct {
		name     string
		sanitize bool
		want     string
	}{
		{name: "off keeps preamble", sanitize: false, want: raw},
		{name: "on strips preamble", sanitize: true, want: "కౌలుదారు అద్దె చెల్లించవలెను."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &scriptedModel{responses: []func(llm.Request) (*llm.Response, error){answer(raw)}}
			o := New(model, newRegistry(t), Config{Sanitize: tt.sanitize}, nil)

			res, err := o.Translate(context.Background(), 0, "The lessee shall pay rent.")

			require.NoError(t, err)
			assert.Equal(t, tt.want, res.TranslatedSentence)
		})
	}
}

func TestTranslate_LanguageCheckIsAdvisory(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	model := &scriptedModel{responses: []func(llm.Request) (*llm.Response, error){answer("The lessee shall pay rent.")}}
	o := New(model, newRegistry(t), Config{}, zap.New(core), WithLanguageCheck(stubChecker{ok: false}))

	res, err := o.Translate(context.Background(), 4, "The lessee shall pay rent.")

	require.NoError(t, err)
	assert.Equal(t, "The lessee shall pay rent.", res.TranslatedSentence)
	entries := logs.FilterMessage("translation does not look like Telugu").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(4), entries[0].ContextMap()["index"])
}

func TestTranslate_NoExamplesStillTranslates(t *testing.T) {
	reg, err := tools.NewDefault(stubRetriever{}, glossary.New(), stubCritic{}, nil)
	require.NoError(t, err)
	model := &scriptedModel{responses: []func(llm.Request) (*llm.Response, error){
		call(toolCall("c1", tools.NameExamples, `{"sentence":"The lessee shall pay rent."}`)),
		answer("కౌలుదారు అద్దె చెల్లించవలెను."),
	}}
	o := New(model, reg, Config{}, nil)

	res, err := o.Translate(context.Background(), 0, "The lessee shall pay rent.")

	require.NoError(t, err)
	assert.Equal(t, "[]", model.requests[1].Messages[2].Content)
	assert.Equal(t, internal.StateCompleted, res.State)
}

func TestSentenceError_Message(t *testing.T) {
	err := &SentenceError{Index: 7, Sentence: "x", Err: fmt.Errorf("model call: %w", ErrEmptyResponse)}
	assert.Equal(t, "sentence 7: model call: model returned an empty answer", err.Error())
}
