package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/vncsmyrnk/pollctl/internal/core/domain"
	"github.com/vncsmyrnk/pollctl/internal/core/ports"
)

const (
	TitleMinLen       = 3
	TitleMaxLen       = 100
	DescriptionMinLen = 10
	DescriptionMaxLen = 500
	MinOptions        = 2
	MaxOptions        = 10
	OptionMinLen      = 2
	OptionMaxLen      = 100
)

// NormalizeCreatePoll trims every text field of the input.
func NormalizeCreatePoll(input ports.CreatePollInput) ports.CreatePollInput {
	out := ports.CreatePollInput{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Options:     make([]string, len(input.Options)),
	}
	for i, opt := range input.Options {
		out.Options[i] = strings.TrimSpace(opt)
	}
	return out
}

// ValidateCreatePoll checks a poll draft without touching the network. All
// problems are reported at once, keyed by field.
func ValidateCreatePoll(input ports.CreatePollInput) error {
	input = NormalizeCreatePoll(input)
	v := domain.NewValidationError()

	checkLength(v, "title", input.Title, TitleMinLen, TitleMaxLen)
	checkLength(v, "description", input.Description, DescriptionMinLen, DescriptionMaxLen)

	switch n := len(input.Options); {
	case n < MinOptions:
		v.Add("options", fmt.Sprintf("at least %d options are required", MinOptions))
	case n > MaxOptions:
		v.Add("options", fmt.Sprintf("maximum %d options allowed", MaxOptions))
	}

	seen := make(map[string]int, len(input.Options))
	for i, opt := range input.Options {
		field := fmt.Sprintf("options[%d]", i)
		n := utf8.RuneCountInString(opt)
		switch {
		case n == 0:
			v.Add(field, "option text is required")
		case n < OptionMinLen:
			v.Add(field, fmt.Sprintf("must be at least %d characters", OptionMinLen))
		case n > OptionMaxLen:
			v.Add(field, fmt.Sprintf("must be at most %d characters", OptionMaxLen))
		}

		key := strings.ToLower(opt)
		if first, dup := seen[key]; dup && n > 0 {
			v.Add(field, fmt.Sprintf("duplicates option %d", first+1))
			v.Add("options", "options must be unique")
			continue
		}
		seen[key] = i
	}

	return v.Err()
}

func checkLength(v *domain.ValidationError, field, value string, min, max int) {
	n := utf8.RuneCountInString(value)
	switch {
	case n == 0:
		v.Add(field, field+" is required")
	case n < min:
		v.Add(field, fmt.Sprintf("must be at least %d characters", min))
	case n > max:
		v.Add(field, fmt.Sprintf("must be at most %d characters", max))
	}
}
