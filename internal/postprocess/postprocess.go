// Package postprocess strips presentation artifacts that chat models wrap
// around a translation.
//
// The orchestrator applies it only when pipeline.sanitize is enabled; by
// default the model's final answer is used verbatim.
package postprocess

import (
	"regexp"
	"strings"
)

// Rule names reported in Result.Applied.
const (
	RuleThinking = "thinking"
	RuleEcho     = "echo"
	RuleFence    = "fence"
	RuleNotes    = "notes"
	RuleQuotes   = "quotes"
)

// Result is the cleaned text and the rules that changed it, in order.
type Result struct {
	Text    string
	Applied []string
}

type rule struct {
	name  string
	apply func(string) string
}

// rules run in order. Notes come after the echo so that
// "Translation: ... Note: ..." loses both.
var rules = []rule{
	{RuleThinking, removeThinkingBlocks},
	{RuleFence, removeCodeFence},
	{RuleEcho, removeInstructionEchoes},
	{RuleNotes, removeTrailingNotes},
	{RuleQuotes, removeQuoteWrapping},
}

// Sanitize applies every rule and records which ones fired.
func Sanitize(text string) Result {
	res := Result{Text: strings.TrimSpace(text)}
	for _, r := range rules {
		out := strings.TrimSpace(r.apply(res.Text))
		if out != res.Text {
			res.Applied = append(res.Applied, r.name)
			res.Text = out
		}
	}
	return res
}

// Clean is Sanitize without the report.
func Clean(text string) string {
	return Sanitize(text).Text
}

// RE2 has no backreferences, so each tag pair is spelled out.
var thinkingBlockRe = regexp.MustCompile(
	`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>|<reflection>.*?</reflection>`,
)

// An opened tag with no closing tag: the model was cut off mid-thought.
var truncatedThinkingRe = regexp.MustCompile(
	`(?is)(?:<thinking>|<think>|<reasoning>|<reflection>).*$`,
)

func removeThinkingBlocks(text string) string {
	text = thinkingBlockRe.ReplaceAllString(text, "")
	return truncatedThinkingRe.ReplaceAllString(text, "")
}

// fenceRe matches an answer wrapped entirely in a ``` block, with an
// optional info string.
var fenceRe = regexp.MustCompile("(?s)^```[a-zA-Z-]*\\s*\\n?(.*?)\\n?```$")

func removeCodeFence(text string) string {
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return text
}

// echoPatterns are anchored at the start and require a colon, so a Telugu
// sentence is never cut.
var echoPatterns = []*regexp.Regexp{
	// Here is / Here's [the] [formal Telugu] translation:
	regexp.MustCompile(`(?i)^here(?:'s| is)(?: the)? (?:telugu |formal |refined |polished |translated |final )*(?:translation|text)(?: in telugu)?\s*:`),
	// [The] [final Telugu] translation [is]:
	regexp.MustCompile(`(?i)^(?:the )?(?:final |telugu |formal |refined |polished )*(?:translation|translated text)(?: in telugu)?(?: is)?\s*:`),
	// Certainly / Sure / Of course, here is the translation:
	regexp.MustCompile(`(?i)^(?:certainly|sure|of course)[,.!]? here(?:'s| is)(?: the)? (?:telugu |formal |refined |polished |translated |final )*(?:translation|text)\s*:`),
	// "Telugu:" mirrors the "English:" user turn.
	regexp.MustCompile(`(?i)^\**telugu\**\s*:`),
}

func removeInstructionEchoes(text string) string {
	for _, re := range echoPatterns {
		if loc := re.FindStringIndex(text); loc != nil {
			text = strings.TrimSpace(text[loc[1]:])
		}
	}
	return text
}

// notesRe finds the start of an explanation block appended after the
// translation ("Note:", "Explanation:", "Glossary check:").
var notesRe = regexp.MustCompile(`(?im)\n\s*(?:\*\*)?(?:note|notes|explanation|glossary check|critique|english)(?:\*\*)?\s*:`)

func removeTrailingNotes(text string) string {
	if loc := notesRe.FindStringIndex(text); loc != nil && loc[0] > 0 {
		return text[:loc[0]]
	}
	return text
}

var quotePairs = [][2]rune{
	{'"', '"'},
	{'\'', '\''},
	{'«', '»'},
	{'“', '”'},
	{'‘', '’'},
}

// removeQuoteWrapping strips one matching pair of outer quotes.
func removeQuoteWrapping(text string) string {
	runes := []rune(text)
	n := len(runes)
	if n < 2 {
		return text
	}
	for _, p := range quotePairs {
		if runes[0] == p[0] && runes[n-1] == p[1] {
			return string(runes[1 : n-1])
		}
	}
	return text
}
