package prompt

import (
	"context"
	"errors"

	"github.com/charmbracelet/huh"
)

// Interactive asks questions on the terminal with a select form.
type Interactive struct{}

// Decide renders the question and blocks until a selection arrives.
// Dismissing the form maps to ErrCanceled.
func (Interactive) Decide(ctx context.Context, q Question) (string, error) {
	options := make([]huh.Option[string], 0, len(q.Options))
	for _, opt := range q.Options {
		options = append(options, huh.NewOption(opt.Label, opt.ID))
	}

	var selected string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(q.Title).
				Description(q.Detail).
				Options(options...).
				Value(&selected),
		),
	)

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", ErrCanceled
		}
		return "", err
	}
	return selected, nil
}

// Verify that Interactive implements Decider at compile time
var _ Decider = Interactive{}
