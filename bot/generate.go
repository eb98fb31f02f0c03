package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/LLMtheism-AI/Ai-Religion-Agent/models"
	"github.com/LLMtheism-AI/Ai-Religion-Agent/twitter"
	"github.com/LLMtheism-AI/Ai-Religion-Agent/utils"
)

// ErrExhausted means every generation attempt produced a duplicate or
// empty candidate. The caller skips publishing for this run; the next
// scheduled invocation starts over.
var ErrExhausted = errors.New("no unique content generated")

// dedupPhraseLen is the length of the word run compared against recent
// posts. Sharing a run this long means the candidate paraphrases earlier
// output too closely; shorter overlaps are generic phrasing.
const dedupPhraseLen = 8

const (
	threadMinParts = 2
	threadMaxParts = 4
)

// Candidate is generated content that passed normalization and duplicate
// validation but has not been published yet. One part is a single post,
// more is a thread.
type Candidate struct {
	Parts []string
}

func (c Candidate) IsThread() bool { return len(c.Parts) > 1 }

func (c Candidate) Kind() models.PostKind {
	if c.IsThread() {
		return models.KindThread
	}
	return models.KindSingle
}

// Content is the stored representation: thread parts concatenated.
func (c Candidate) Content() string { return strings.Join(c.Parts, "\n") }

// leadText is what duplicate detection compares: the whole text of a
// single post, the first part of a thread.
func (c Candidate) leadText() string {
	if len(c.Parts) == 0 {
		return ""
	}
	return c.Parts[0]
}

// quoteGlyphs covers straight and typographic quotation marks the model
// tends to wrap output in: " " " „ ‟ ' ' ' ‹ › « » `
const quoteGlyphs = "\"“”„‟'‘’‹›«»`"

// Normalize strips surrounding and embedded quote glyphs and caps the text
// to the platform's single-post limit.
func Normalize(text string) string {
	text = strings.TrimSpace(text)
	text = strings.Trim(text, quoteGlyphs)
	text = strings.Map(func(r rune) rune {
		if strings.ContainsRune(quoteGlyphs, r) {
			return -1
		}
		return r
	}, text)
	return strings.TrimSpace(truncate(text, twitter.PostMaxLen))
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

// parseThread tests the raw response for the structured multi-part shape:
// a JSON array of 2-4 strings, or of objects carrying a text field,
// optionally inside a markdown code fence. Each part is normalized and
// capped independently. Anything else is not a thread.
func parseThread(raw string) ([]string, bool) {
	cleaned := stripCodeFence(raw)
	if !strings.HasPrefix(cleaned, "[") {
		return nil, false
	}

	var parts []string
	if err := json.Unmarshal([]byte(cleaned), &parts); err != nil {
		var objs []struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal([]byte(cleaned), &objs); err != nil {
			return nil, false
		}
		for _, o := range objs {
			parts = append(parts, o.Text)
		}
	}

	if len(parts) < threadMinParts || len(parts) > threadMaxParts {
		return nil, false
	}
	normalized := make([]string, 0, len(parts))
	for _, p := range parts {
		p = Normalize(p)
		if p == "" {
			return nil, false
		}
		normalized = append(normalized, p)
	}
	return normalized, true
}

func stripCodeFence(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	return strings.TrimSpace(raw)
}

// parseCandidate interprets a raw generator response. A failed thread
// parse silently falls back to the single-post interpretation.
func parseCandidate(raw string) Candidate {
	if parts, ok := parseThread(raw); ok {
		return Candidate{Parts: parts}
	}
	return Candidate{Parts: []string{Normalize(raw)}}
}

// isDuplicate reports whether the candidate text is too close to any of
// the recent posts: an exact case-insensitive match, or any contiguous run
// of dedupPhraseLen words appearing verbatim inside a recent post. The
// matched phrase is returned for logging.
func isDuplicate(text string, recentPosts []string) (bool, string) {
	textLower := strings.ToLower(text)
	words := strings.Fields(textLower)

	for _, recent := range recentPosts {
		recentLower := strings.ToLower(recent)
		if textLower == recentLower {
			return true, text
		}
		for i := 0; i+dedupPhraseLen <= len(words); i++ {
			phrase := strings.Join(words[i:i+dedupPhraseLen], " ")
			if strings.Contains(recentLower, phrase) {
				return true, phrase
			}
		}
	}
	return false, ""
}

// attemptGenerate requests candidates from the generator until one passes
// duplicate validation, up to maxAttempts. It returns the accepted
// candidate and the number of attempts used. A generator error is returned
// as-is; exhausting the attempts returns ErrExhausted.
func attemptGenerate(ctx context.Context, brain Brain, recentPosts []string, maxAttempts int) (Candidate, int, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		raw, err := brain.GeneratePost(ctx, recentPosts)
		if err != nil {
			return Candidate{}, attempt, err
		}

		cand := parseCandidate(raw)
		if cand.leadText() == "" {
			utils.Warn("generator", "validate", fmt.Sprintf("empty candidate, attempt %d/%d", attempt, maxAttempts))
			continue
		}
		if dup, phrase := isDuplicate(cand.leadText(), recentPosts); dup {
			utils.Warn("generator", "dedup", fmt.Sprintf("duplicate candidate (%q), attempt %d/%d", phrase, attempt, maxAttempts))
			continue
		}
		return cand, attempt, nil
	}
	return Candidate{}, maxAttempts, ErrExhausted
}
