package validators

import (
	"fmt"
	"strings"
	"unicode/utf8"

	pkgerrors "github.com/angelmondragon/catalog-backoffice/pkg/errors"
)

// SanitizeString trims the input and rejects it when it exceeds maxLen characters.
// Length is counted in runes so multibyte text is never split.
func SanitizeString(input, field string, maxLen int) (string, error) {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && utf8.RuneCountInString(trimmed) > maxLen {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s must be at most %d characters", field, maxLen)).
			WithDetails(map[string]any{"field": field, "max_length": maxLen})
	}
	return trimmed, nil
}
