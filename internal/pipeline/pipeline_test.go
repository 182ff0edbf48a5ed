package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/lexitran/internal"
	"github.com/valpere/lexitran/internal/extract"
	"github.com/valpere/lexitran/internal/segmenter"
)

// fakeTranslator prefixes each sentence with "TE:" and fails the sentences
// listed in failOn.
type fakeTranslator struct {
	failOn map[string]bool
	calls  []string
}

func (f *fakeTranslator) ModelName() string { return "fake" }

func (f *fakeTranslator) Translate(_ context.Context, index int, sentence string) (internal.TranslationResult, error) {
	f.calls = append(f.calls, sentence)
	res := internal.TranslationResult{Index: index, SourceSentence: sentence}
	if f.failOn[sentence] {
		res.State = internal.StateFailed
		res.TranslatedSentence = "[Translation Error: " + sentence + "]"
		res.Error = "model unavailable"
		return res, errors.New("model unavailable")
	}
	res.State = internal.StateCompleted
	res.TranslatedSentence = "TE:" + sentence
	return res, nil
}

type progressLog struct {
	calls [][2]int
}

func (p *progressLog) record(processed, total int) {
	p.calls = append(p.calls, [2]int{processed, total})
}

type fakeRecorder struct {
	run     internal.TranslationRun
	results []internal.TranslationResult
	err     error
}

func (f *fakeRecorder) SaveRun(_ context.Context, run internal.TranslationRun, results []internal.TranslationResult) error {
	f.run = run
	f.results = results
	return f.err
}

type fakeMemory map[string]string

func (m fakeMemory) LookupSentence(_ context.Context, s string) (string, bool, error) {
	v, ok := m[s]
	return v, ok, nil
}

func textDoc(text string) internal.SourceDocument {
	return internal.SourceDocument{Name: "deed.txt", Data: []byte(text)}
}

func TestTranslateDocument_EndToEnd(t *testing.T) {
	tr := &fakeTranslator{}
	p := New(tr, segmenter.New(), Options{}, nil)
	progress := &progressLog{}

	out, err := p.TranslateDocument(context.Background(), textDoc("The lessee shall pay rent. This clause is void."), progress.record)

	require.NoError(t, err)
	assert.Equal(t, "TE:The lessee shall pay rent.\n\nTE:This clause is void.", out)
	assert.Equal(t, []string{"The lessee shall pay rent.", "This clause is void."}, tr.calls)
	assert.Equal(t, [][2]int{{1, 2}, {2, 2}}, progress.calls)
}

func TestRun_ShortFragmentsAreSkipped(t *testing.T) {
	tr := &fakeTranslator{}
	p := New(tr, segmenter.New(), Options{}, nil)
	progress := &progressLog{}

	report, err := p.Run(context.Background(), textDoc("Page 1\n\nThe lessee shall pay rent. Ok. This clause is void."), progress.record)

	require.NoError(t, err)
	assert.Equal(t, 2, report.Total)
	for _, c := range tr.calls {
		assert.GreaterOrEqual(t, len([]rune(c)), segmenter.DefaultMinLength)
	}
	assert.NotContains(t, report.Output, "Ok.")
	require.NotEmpty(t, progress.calls)
	assert.Equal(t, [2]int{report.Total, report.Total}, progress.calls[len(progress.calls)-1])
}

func TestRun_FailureIsolation(t *testing.T) {
	sentences := []string{
		"The lessee shall pay rent.",
		"The lessor shall repair the roof.",
		"This clause is void.",
		"Notice must be given in writing.",
		"The deposit is refundable.",
	}
	tr := &fakeTranslator{failOn: map[string]bool{sentences[2]: true}}
	rec := &fakeRecorder{}
	p := New(tr, segmenter.New(), Options{Recorder: rec}, nil)

	report, err := p.Run(context.Background(), textDoc(strings.Join(sentences, " ")), nil)

	require.NoError(t, err)
	blocks := strings.Split(report.Output, Separator)
	require.Len(t, blocks, 5)
	for i, s := range sentences {
		if i == 2 {
			assert.Equal(t, "[Translation Error: This clause is void.]", blocks[i])
			continue
		}
		assert.Equal(t, "TE:"+s, blocks[i], "block %d keeps document order", i)
	}
	assert.Equal(t, 1, report.Failed)

	assert.Equal(t, report.RunID, rec.run.ID)
	assert.Equal(t, 5, rec.run.Total)
	assert.Equal(t, 1, rec.run.Failed)
	assert.Equal(t, "fake", rec.run.Model)
	assert.Len(t, rec.results, 5)
}

func TestRun_ProgressStrictlyIncreasing(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 7; i++ {
		fmt.Fprintf(&b, "Sentence number %d is long enough. ", i)
	}
	p := New(&fakeTranslator{}, segmenter.New(), Options{}, nil)
	progress := &progressLog{}

	_, err := p.Run(context.Background(), textDoc(b.String()), progress.record)

	require.NoError(t, err)
	require.Len(t, progress.calls, 7)
	for i, c := range progress.calls {
		assert.Equal(t, i+1, c[0])
		assert.Equal(t, 7, c[1])
	}
}

func TestRun_DocumentFormatErrorAborts(t *testing.T) {
	tr := &fakeTranslator{}
	p := New(tr, segmenter.New(), Options{}, nil)

	_, err := p.Run(context.Background(), internal.SourceDocument{Name: "deed.pdf", Data: []byte("%PDF-1.4 garbage")}, nil)

	assert.ErrorIs(t, err, extract.ErrDocumentFormat)
	assert.Empty(t, tr.calls)
}

func TestRun_EmptyDocument(t *testing.T) {
	p := New(&fakeTranslator{}, segmenter.New(), Options{}, nil)
	progress := &progressLog{}

	report, err := p.Run(context.Background(), textDoc("   "), progress.record)

	require.NoError(t, err)
	assert.Equal(t, "", report.Output)
	assert.Zero(t, report.Total)
	assert.Empty(t, progress.calls)
}

func TestRun_RecorderFailureIsNotFatal(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("disk full")}
	p := New(&fakeTranslator{}, segmenter.New(), Options{Recorder: rec}, nil)

	out, err := p.TranslateDocument(context.Background(), textDoc("The lessee shall pay rent."), nil)

	require.NoError(t, err)
	assert.Equal(t, "TE:The lessee shall pay rent.", out)
}

func TestRun_MemoryReuse(t *testing.T) {
	tr := &fakeTranslator{}
	mem := fakeMemory{"This clause is void.": "ఈ నిబంధన చెల్లదు."}
	p := New(tr, segmenter.New(), Options{Memory: mem}, nil)

	report, err := p.Run(context.Background(), textDoc("The lessee shall pay rent. This clause is void."), nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"The lessee shall pay rent."}, tr.calls)
	assert.True(t, report.Results[1].FromMemory)
	assert.Equal(t, "TE:The lessee shall pay rent.\n\nఈ నిబంధన చెల్లదు.", report.Output)
}

func TestTranslateText_SkipsExtraction(t *testing.T) {
	p := New(&fakeTranslator{}, nil, Options{}, nil)

	report := p.TranslateText(context.Background(), "The lessee shall pay rent.", nil)

	assert.Equal(t, "TE:The lessee shall pay rent.", report.Output)
	assert.Empty(t, report.Document)
}
