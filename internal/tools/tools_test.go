package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/lexitran/internal"
	"github.com/valpere/lexitran/internal/glossary"
)

type fakeRetriever struct {
	pairs []internal.ExamplePair
	got   string
}

func (f *fakeRetriever) Retrieve(_ context.Context, text string) []internal.ExamplePair {
	f.got = text
	return f.pairs
}

type fakeCritic struct {
	text string
	err  error
}

func (f fakeCritic) Critique(context.Context, string, string) (string, error) {
	return f.text, f.err
}

func newTestRegistry(t *testing.T, r ExampleRetriever, g *glossary.Glossary, c fakeCritic) *Registry {
	t.Helper()
	reg, err := NewDefault(r, g, c, nil)
	require.NoError(t, err)
	return reg
}

func TestRegistry_SpecsInOrder(t *testing.T) {
	reg := newTestRegistry(t, &fakeRetriever{}, glossary.New(), fakeCritic{})

	specs := reg.Specs()

	require.Len(t, specs, 3)
	assert.Equal(t, []string{NameExamples, NameGlossary, NameCritique}, reg.Names())
	for _, s := range specs {
		assert.NotEmpty(t, s.Description)
		require.NotNil(t, s.Parameters)
		assert.Equal(t, "object", s.Parameters.Type)
	}
}

func TestRegistry_DuplicateName(t *testing.T) {
	_, err := NewRegistry(nil, GlossaryCheck(glossary.New()), GlossaryCheck(glossary.New()))
	assert.Error(t, err)
}

func TestCall_UnknownTool(t *testing.T) {
	reg := newTestRegistry(t, &fakeRetriever{}, glossary.New(), fakeCritic{})

	_, err := reg.Call(context.Background(), "translate_with_google", json.RawMessage(`{}`))

	assert.ErrorIs(t, err, ErrUnknownTool)
	var invErr *InvocationError
	require.True(t, errors.As(err, &invErr))
	assert.Equal(t, "translate_with_google", invErr.Tool)
}

func TestCall_InvalidArguments(t *testing.T) {
	reg := newTestRegistry(t, &fakeRetriever{}, glossary.New(), fakeCritic{})

	tests := []struct {
		name string
		tool string
		raw  string
	}{
		{name: "malformed json", tool: NameGlossary, raw: `{"original":`},
		{name: "missing field", tool: NameGlossary, raw: `{"original":"The lessee"}`},
		{name: "wrong type", tool: NameCritique, raw: `{"original":"a","translation":5}`},
		{name: "empty args", tool: NameExamples, raw: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Call(context.Background(), tt.tool, json.RawMessage(tt.raw))
			assert.ErrorIs(t, err, ErrInvalidArguments)
		})
	}
}

func TestGetExamples_RendersPairs(t *testing.T) {
	r := &fakeRetriever{pairs: []internal.ExamplePair{
		{SourceText: "The lessee shall pay rent.", TargetText: "కౌలుదారు అద్దె చెల్లించవలెను."},
		{SourceText: "The deed is void.", TargetText: "దస్తావేజు చెల్లదు."},
	}}
	reg := newTestRegistry(t, r, glossary.New(), fakeCritic{})

	out, err := reg.Call(context.Background(), NameExamples, json.RawMessage(`{"sentence":"The lessee pays rent."}`))

	require.NoError(t, err)
	assert.Equal(t, "The lessee pays rent.", r.got)
	assert.JSONEq(t, `[
		{"english":"The lessee shall pay rent.","telugu":"కౌలుదారు అద్దె చెల్లించవలెను."},
		{"english":"The deed is void.","telugu":"దస్తావేజు చెల్లదు."}
	]`, out)
}

func TestGetExamples_EmptyStore(t *testing.T) {
	reg := newTestRegistry(t, &fakeRetriever{}, glossary.New(), fakeCritic{})

	out, err := reg.Call(context.Background(), NameExamples, json.RawMessage(`{"sentence":"anything"}`))

	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}

func TestGlossaryTool(t *testing.T) {
	g := glossary.FromPairs("lessee", "బాడిగెదారు")
	reg := newTestRegistry(t, &fakeRetriever{}, g, fakeCritic{})

	out, err := reg.Call(context.Background(), NameGlossary,
		json.RawMessage(`{"original":"The lessee shall pay.","translation":"అద్దెదారు చెల్లించాలి."}`))
	require.NoError(t, err)
	assert.Equal(t, "Term 'lessee' found in English but Telugu equivalent 'బాడిగెదారు' not found in translation.", out)

	out, err = reg.Call(context.Background(), NameGlossary,
		json.RawMessage(`{"original":"The lessee shall pay.","translation":"బాడిగెదారు చెల్లించవలెను."}`))
	require.NoError(t, err)
	assert.Equal(t, glossary.NoIssues, out)
}

func TestCritiqueTool_ErrorBecomesObservation(t *testing.T) {
	reg := newTestRegistry(t, &fakeRetriever{}, glossary.New(), fakeCritic{err: errors.New("model unavailable")})

	out, err := reg.Call(context.Background(), NameCritique, json.RawMessage(`{"original":"a","translation":"b"}`))

	require.Error(t, err)
	obs := Observation(out, err)
	assert.True(t, strings.HasPrefix(obs, "Error: "))
	assert.Contains(t, obs, "model unavailable")
}

func TestObservation_PassesOutput(t *testing.T) {
	assert.Equal(t, "fine", Observation("fine", nil))
}
