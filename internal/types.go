package internal

import "time"

// ExamplePair is a previously translated English/Telugu sentence pair held
// in the vector example store.
type ExamplePair struct {
	ID         string    `json:"id,omitempty"`
	SourceText string    `json:"english_text"`
	TargetText string    `json:"telugu_text"`
	Embedding  []float32 `json:"embedding,omitempty"`
	Score      float32   `json:"score,omitempty"`
}

// SentenceState tracks a sentence through the orchestrator.
type SentenceState string

const (
	StatePending    SentenceState = "pending"
	StateInProgress SentenceState = "in_progress"
	StateCompleted  SentenceState = "completed"
	StateFailed     SentenceState = "failed"
)

// TranslationResult is the outcome of translating one retained sentence.
type TranslationResult struct {
	Index              int           `json:"index"`
	SourceSentence     string        `json:"source_sentence"`
	TranslatedSentence string        `json:"translated_sentence"`
	GlossaryIssues     []string      `json:"glossary_issues,omitempty"`
	Critique           string        `json:"critique,omitempty"`
	State              SentenceState `json:"state"`
	Error              string        `json:"error,omitempty"`
	Iterations         int           `json:"iterations"`
	ToolCalls          []string      `json:"tool_calls,omitempty"`
	FromMemory         bool          `json:"from_memory,omitempty"`
	Latency            time.Duration `json:"latency"`
}

// Failed reports whether the sentence was replaced by an error marker.
func (r TranslationResult) Failed() bool {
	return r.State == StateFailed
}

// ProgressFunc receives (processed, total) after each attempted sentence.
type ProgressFunc func(processed, total int)

// SourceDocument is an uploaded document as raw bytes plus its file name,
// which is used as a format hint.
type SourceDocument struct {
	Name string
	Data []byte
}

// TranslationRun is the persisted header of one document translation.
type TranslationRun struct {
	ID        string    `json:"id"`
	Document  string    `json:"document"`
	Total     int       `json:"total"`
	Failed    int       `json:"failed"`
	Model     string    `json:"model"`
	Timestamp time.Time `json:"timestamp"`
}
