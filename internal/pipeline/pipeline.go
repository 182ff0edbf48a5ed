// Package pipeline turns a source document into a joined Telugu translation:
// extract text, segment, drop short fragments, translate each retained
// sentence in order and join the results with blank lines.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/valpere/lexitran/internal"
	"github.com/valpere/lexitran/internal/extract"
	"github.com/valpere/lexitran/internal/segmenter"
)

// Separator joins translated sentences in the output.
const Separator = "\n\n"

// Translator makes one attempt at a sentence. The result is always usable;
// a non-nil error means the result carries an error marker.
type Translator interface {
	Translate(ctx context.Context, index int, sentence string) (internal.TranslationResult, error)
	ModelName() string
}

// Recorder persists a finished run.
type Recorder interface {
	SaveRun(ctx context.Context, run internal.TranslationRun, results []internal.TranslationResult) error
}

// Memory returns an earlier completed translation of an identical sentence.
type Memory interface {
	LookupSentence(ctx context.Context, sentence string) (string, bool, error)
}

type Options struct {
	MinLength int
	Recorder  Recorder
	Memory    Memory
}

// Report is the full outcome of one run.
type Report struct {
	RunID    string                       `json:"run_id"`
	Document string                       `json:"document"`
	Output   string                       `json:"output"`
	Total    int                          `json:"total"`
	Failed   int                          `json:"failed"`
	Results  []internal.TranslationResult `json:"sentences"`
}

type Pipeline struct {
	translator Translator
	segmenter  *segmenter.Segmenter
	opts       Options
	logger     *zap.Logger
}

func New(t Translator, seg *segmenter.Segmenter, opts Options, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if seg == nil {
		seg = segmenter.New()
	}
	if opts.MinLength <= 0 {
		opts.MinLength = segmenter.DefaultMinLength
	}
	return &Pipeline{translator: t, segmenter: seg, opts: opts, logger: logger}
}

// TranslateDocument returns the joined translation of doc. Only an
// extraction failure is returned as an error; sentence failures appear as
// markers in the output.
func (p *Pipeline) TranslateDocument(ctx context.Context, doc internal.SourceDocument, onProgress internal.ProgressFunc) (string, error) {
	report, err := p.Run(ctx, doc, onProgress)
	if err != nil {
		return "", err
	}
	return report.Output, nil
}

// Run is TranslateDocument with per-sentence results.
func (p *Pipeline) Run(ctx context.Context, doc internal.SourceDocument, onProgress internal.ProgressFunc) (*Report, error) {
	text, err := extract.Extract(doc.Name, doc.Data)
	if err != nil {
		return nil, err
	}
	return p.run(ctx, doc.Name, text, onProgress), nil
}

// TranslateText runs the pipeline on already extracted text.
func (p *Pipeline) TranslateText(ctx context.Context, text string, onProgress internal.ProgressFunc) *Report {
	return p.run(ctx, "", text, onProgress)
}

func (p *Pipeline) run(ctx context.Context, name, text string, onProgress internal.ProgressFunc) *Report {
	sentences := segmenter.Retain(p.segmenter.Segment(text), p.opts.MinLength)
	total := len(sentences)

	report := &Report{
		RunID:    uuid.New().String(),
		Document: name,
		Total:    total,
		Results:  make([]internal.TranslationResult, 0, total),
	}
	p.logger.Info("translating document",
		zap.String("run_id", report.RunID),
		zap.String("document", name),
		zap.Int("sentences", total),
	)

	outputs := make([]string, 0, total)
	for i, sentence := range sentences {
		res := p.translate(ctx, i, sentence)
		if res.Failed() {
			report.Failed++
		}
		report.Results = append(report.Results, res)
		outputs = append(outputs, res.TranslatedSentence)

		if onProgress != nil {
			onProgress(i+1, total)
		}
	}
	report.Output = strings.Join(outputs, Separator)

	p.record(ctx, report)
	p.logger.Info("document translated",
		zap.String("run_id", report.RunID),
		zap.Int("total", report.Total),
		zap.Int("failed", report.Failed),
	)
	return report
}

func (p *Pipeline) translate(ctx context.Context, index int, sentence string) internal.TranslationResult {
	if p.opts.Memory != nil {
		prev, ok, err := p.opts.Memory.LookupSentence(ctx, sentence)
		if err != nil {
			p.logger.Warn("translation memory lookup failed", zap.Int("index", index), zap.Error(err))
		}
		if ok {
			return internal.TranslationResult{
				Index:              index,
				SourceSentence:     sentence,
				TranslatedSentence: prev,
				State:              internal.StateCompleted,
				FromMemory:         true,
			}
		}
	}

	// The error is already logged and reflected in res.
	res, _ := p.translator.Translate(ctx, index, sentence)
	return res
}

func (p *Pipeline) record(ctx context.Context, report *Report) {
	if p.opts.Recorder == nil {
		return
	}
	run := internal.TranslationRun{
		ID:        report.RunID,
		Document:  report.Document,
		Total:     report.Total,
		Failed:    report.Failed,
		Model:     p.translator.ModelName(),
		Timestamp: time.Now().UTC(),
	}
	if err := p.opts.Recorder.SaveRun(ctx, run, report.Results); err != nil {
		p.logger.Warn("failed to record run", zap.String("run_id", run.ID), zap.Error(err))
	}
}
