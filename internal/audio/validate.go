package audio

import (
	"fmt"
	"strings"
	"unicode"
)

// ValidateText rejects text that no provider can speak
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text cannot be empty")
	}
	return nil
}

// ValidateLanguage checks that lang looks like a language code such as
// "en", "gu" or "en-US". Whether a provider supports it is only known when
// synthesis runs.
func ValidateLanguage(lang string) error {
	if len(lang) < 2 || len(lang) > 16 {
		return fmt.Errorf("invalid language code %q", lang)
	}
	for _, r := range lang {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_') {
			return fmt.Errorf("invalid language code %q", lang)
		}
	}
	return nil
}
