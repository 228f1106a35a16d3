// Where: internal/interaction/selector.go
// What: Interactive prompts backed by the huh library.
// Why: Provide keyboard-based confirmation/selection without bespoke TUI code.
package interaction

import "github.com/charmbracelet/huh"

// HuhPrompter implements Prompter using the huh TUI library.
type HuhPrompter struct{}

func (HuhPrompter) Confirm(title string) (bool, error) {
	var confirmed bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&confirmed).
		Run()
	if err != nil {
		return false, err
	}
	return confirmed, nil
}

func (HuhPrompter) Select(title string, options []string) (string, error) {
	if len(options) == 0 {
		return "", nil
	}

	huhOptions := make([]huh.Option[string], len(options))
	for i, opt := range options {
		huhOptions[i] = huh.NewOption(opt, opt)
	}

	var selected string
	err := huh.NewSelect[string]().
		Title(title).
		Options(huhOptions...).
		Value(&selected).
		Run()
	if err != nil {
		return "", err
	}
	return selected, nil
}
