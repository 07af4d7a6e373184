// Package prompt is the human decision boundary. Every question carries a
// closed, enumerated set of labeled options and blocks until one is
// selected; free-text answers are never parsed.
package prompt

import (
	"context"
	"fmt"
)

// Option is one selectable answer.
type Option struct {
	ID    string
	Label string
}

// Question is a single decision request.
type Question struct {
	Title   string
	Detail  string
	Options []Option
}

// ErrCanceled reports that the user dismissed a question instead of
// answering it. Callers treat it as an abort request.
var ErrCanceled = fmt.Errorf("decision canceled")

// Decider answers questions. Implementations block indefinitely; there is
// no timeout on a human decision.
type Decider interface {
	Decide(ctx context.Context, q Question) (string, error)
}

// Scripted is a Decider for tests: it replays canned answers in order.
type Scripted struct {
	Answers []string
	Asked   []Question
	next    int
}

// Decide returns the next scripted answer, validating it against the
// question's options.
func (s *Scripted) Decide(ctx context.Context, q Question) (string, error) {
	s.Asked = append(s.Asked, q)
	if s.next >= len(s.Answers) {
		return "", fmt.Errorf("no scripted answer for %q", q.Title)
	}
	answer := s.Answers[s.next]
	s.next++
	for _, opt := range q.Options {
		if opt.ID == answer {
			return answer, nil
		}
	}
	return "", fmt.Errorf("scripted answer %q is not an option of %q", answer, q.Title)
}
