// Package sanitize cleans remote verse and translation text before it is
// persisted. Translation endpoints return HTML fragments with footnote
// markers and inline markup; stored text must be plain.
package sanitize

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

var (
	// strict strips every tag, keeping inner text
	strict = bluemonday.StrictPolicy()

	// footnoteRe matches footnote elements including their content, e.g.
	// <sup foot_note="123">1</sup>. The marker text is dropped entirely.
	footnoteRe = regexp.MustCompile(`(?is)<sup[^>]*foot_note[^>]*>.*?</sup>`)

	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Clean removes markup artifacts from a translation text: footnote markers
// and their content are dropped, remaining tags are stripped preserving
// inner text, HTML entities are decoded and whitespace runs collapsed.
func Clean(text string) string {
	if text == "" {
		return ""
	}

	text = footnoteRe.ReplaceAllString(text, "")
	text = strict.Sanitize(text)

	// bluemonday re-encodes entities; decode them for display storage
	text = html.UnescapeString(text)

	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

const (
	shadda = 'ّ'
	kasra  = 'ِ'
)

// FixDiacriticOrder reorders shadda+kasra pairs to kasra+shadda so the
// combined mark renders correctly on common fonts.
func FixDiacriticOrder(text string) string {
	runes := []rune(text)
	for i := 0; i < len(runes)-1; i++ {
		if runes[i] == shadda && runes[i+1] == kasra {
			runes[i], runes[i+1] = runes[i+1], runes[i]
			i++
		}
	}
	return string(runes)
}

// NormalizeArabic applies NFC normalization and the diacritic-order fix to
// imported Arabic verse text.
func NormalizeArabic(text string) string {
	return FixDiacriticOrder(norm.NFC.String(text))
}
