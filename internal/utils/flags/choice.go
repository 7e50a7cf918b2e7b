package flags

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

const (
	choicePlaceholderPrefix   = "<"
	choicePlaceholderSuffix   = ">"
	choiceSeparatorLiteral    = "|"
	choiceUsageEmptyTemplate  = "`%s`"
	choiceUsageFullTemplate   = "`%s` %s"
	invalidChoiceMessage      = "invalid choice"
	invalidChoiceTemplate     = "%w %q (expected %s)"
	choiceListSeparatorString = ", "
)

// ErrInvalidChoice indicates a flag value outside its accepted set.
var ErrInvalidChoice = errors.New(invalidChoiceMessage)

// FormatChoiceUsage builds a usage string listing the choices with the default capitalized.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	normalizedDefault := normalizeChoice(defaultChoice)
	highlighted := lo.Map(uniqueChoices(choices), func(choice string, _ int) string {
		if normalizeChoice(choice) == normalizedDefault && len(normalizedDefault) > 0 {
			return strings.ToUpper(choice)
		}
		return choice
	})

	placeholder := choicePlaceholderPrefix + strings.Join(highlighted, choiceSeparatorLiteral) + choicePlaceholderSuffix
	if len(strings.TrimSpace(description)) == 0 {
		return fmt.Sprintf(choiceUsageEmptyTemplate, placeholder)
	}
	return fmt.Sprintf(choiceUsageFullTemplate, placeholder, description)
}

// ParseChoice returns the canonical choice matching value case-insensitively.
func ParseChoice(value string, choices []string) (string, error) {
	normalizedValue := normalizeChoice(value)
	accepted := uniqueChoices(choices)
	matched, found := lo.Find(accepted, func(choice string) bool {
		return normalizeChoice(choice) == normalizedValue
	})
	if !found {
		return "", fmt.Errorf(invalidChoiceTemplate, ErrInvalidChoice, value, strings.Join(accepted, choiceListSeparatorString))
	}
	return matched, nil
}

func uniqueChoices(choices []string) []string {
	trimmed := lo.Compact(lo.Map(choices, func(choice string, _ int) string {
		return strings.TrimSpace(choice)
	}))
	return lo.UniqBy(trimmed, normalizeChoice)
}

func normalizeChoice(choice string) string {
	return strings.ToLower(strings.TrimSpace(choice))
}
