package judge

import (
	"strings"

	"codecollab/internal/common"
)

// languageCodes maps a source-language identifier to the external judge's
// numeric language code. Aliases such as node.js map onto the javascript code.
var languageCodes = map[string]int{
	"c":          50,
	"cpp":        54,
	"java":       62,
	"python":     71,
	"javascript": 63,
	"typescript": 74,
	"node.js":    63,
	"react.js":   63,
}

// ResolveLanguage resolves a language identifier (case-insensitive) to the
// judge's language code. Unknown identifiers yield ErrUnsupportedLanguage so
// callers can distinguish them from execution failures.
func ResolveLanguage(languageID string) (int, error) {
	code, ok := languageCodes[strings.ToLower(languageID)]
	if !ok {
		return 0, common.Errorf("%q: %w", languageID, common.ErrUnsupportedLanguage)
	}
	return code, nil
}

// SupportedLanguages returns the known identifiers, for API discovery.
func SupportedLanguages() []string {
	langs := make([]string, 0, len(languageCodes))
	for name := range languageCodes {
		langs = append(langs, name)
	}
	return langs
}
