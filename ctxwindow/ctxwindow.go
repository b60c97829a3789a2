// Package ctxwindow implements token counting and sliding-window trimming
// of a conversation so it fits under a model's context budget.
package ctxwindow

import (
	"encoding/json"
	"math"

	"github.com/openlinkos/agent/llms"
)

// TokenCounter estimates the token cost of a single message.
type TokenCounter func(msg llms.Message) int

// CharBasedTokenCounter approximates token count as ceil(len(text)/charsPerToken).
// Assistant messages include the JSON-encoded tool calls in the length;
// tool messages count their content; a nil content contributes 0.
func CharBasedTokenCounter(charsPerToken int) TokenCounter {
	if charsPerToken <= 0 {
		charsPerToken = 4
	}
	return func(msg llms.Message) int {
		length := 0
		if msg.Content != nil {
			length += len(*msg.Content)
		}
		if msg.Role == llms.RoleAssistant && len(msg.ToolCalls) > 0 {
			if b, err := json.Marshal(msg.ToolCalls); err == nil {
				length += len(b)
			}
		}
		if length == 0 {
			return 0
		}
		return int(math.Ceil(float64(length) / float64(charsPerToken)))
	}
}

// CountTotal sums the per-message token count across msgs.
func CountTotal(msgs []llms.Message, counter TokenCounter) int {
	total := 0
	for _, m := range msgs {
		total += counter(m)
	}
	return total
}

// Summarizer condenses messages the sliding window would otherwise discard
// into a single replacement line. Returning an error falls back to pure
// truncation for that call, as if no Summarizer were configured.
type Summarizer func(dropped []llms.Message) (string, error)

// SlidingWindowStrategy trims the oldest non-system messages until the
// total token count fits within maxTokens. System messages are always
// retained and placed first, followed by the kept non-system messages in
// their original order. The input slice is never mutated.
type SlidingWindowStrategy struct {
	MaxTokens    int
	TokenCounter TokenCounter
	Summarizer   Summarizer
}

// NewSlidingWindowStrategy builds a strategy with the default
// CharBasedTokenCounter(4) unless a counter is supplied.
func NewSlidingWindowStrategy(maxTokens int, counter TokenCounter) *SlidingWindowStrategy {
	if counter == nil {
		counter = CharBasedTokenCounter(4)
	}
	return &SlidingWindowStrategy{MaxTokens: maxTokens, TokenCounter: counter}
}

// Apply returns the trimmed message list. When a Summarizer is configured
// and at least one message was dropped, a single system-role message
// carrying the summary is inserted ahead of what remains; with no
// Summarizer (the default), dropped messages are simply gone.
func (s *SlidingWindowStrategy) Apply(msgs []llms.Message) []llms.Message {
	system := make([]llms.Message, 0, len(msgs))
	rest := make([]llms.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == llms.RoleSystem {
			system = append(system, m)
		} else {
			rest = append(rest, m)
		}
	}

	var dropped []llms.Message
	for len(rest) > 0 && CountTotal(system, s.TokenCounter)+CountTotal(rest, s.TokenCounter) > s.MaxTokens {
		dropped = append(dropped, rest[0])
		rest = rest[1:]
	}

	out := make([]llms.Message, 0, len(system)+len(rest)+1)
	out = append(out, system...)
	if s.Summarizer != nil && len(dropped) > 0 {
		if summary, err := s.Summarizer(dropped); err == nil {
			out = append(out, llms.NewTextMessage(llms.RoleSystem, summary))
		}
	}
	out = append(out, rest...)
	return out
}
