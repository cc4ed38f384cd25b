// Package slugs maps permit records to stable URLs and resolves cross-references between them.
//
// Slugs are part of the public URL space: external links and search indexes depend on
// them, so every function here is a pure function of its inputs.
package slugs

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/jonathan/permitindex/internal/types"
)

// ComputeSlug derives the URL slug for a composite key.
// Inputs are trimmed; an empty field is a fatal data error.
func ComputeSlug(agencyShort, requestType string) (string, error) {
	agency := strings.TrimSpace(agencyShort)
	request := strings.TrimSpace(requestType)

	switch {
	case agency == "":
		return "", &types.DataError{Kind: types.KindMissingKeyField, Message: "agency_short is empty"}
	case request == "":
		return "", &types.DataError{Kind: types.KindMissingKeyField, Message: "request_type is empty"}
	}

	slug := Normalize(agency + " " + request)
	if slug == "" {
		return "", &types.DataError{
			Kind:    types.KindMissingKeyField,
			Message: fmt.Sprintf("key (%q, %q) has no letters or digits", agency, request),
		}
	}
	return slug, nil
}

// Normalize lower-cases s, folds diacritics ("é" -> "e"), transliterates
// letters that have no decomposition ("ß" -> "ss"), collapses every run of
// non-alphanumeric characters into one hyphen and strips leading/trailing
// hyphens. Letters and digits of any script are kept.
func Normalize(s string) string {
	folded := foldMarks(strings.ToLower(s))

	var sb strings.Builder
	sb.Grow(len(folded))
	pendingHyphen := false
	for _, r := range folded {
		if !slugRune(r) {
			pendingHyphen = true
			continue
		}
		if pendingHyphen && sb.Len() > 0 {
			sb.WriteByte('-')
		}
		pendingHyphen = false
		if t, ok := transliterations[r]; ok {
			sb.WriteString(t)
		} else {
			sb.WriteRune(unicode.ToLower(r))
		}
	}
	return sb.String()
}

// transliterations covers Latin letters that NFD leaves intact.
var transliterations = map[rune]string{
	'ß': "ss",
	'æ': "ae",
	'œ': "oe",
	'ø': "o",
	'đ': "d",
	'ð': "d",
	'þ': "th",
	'ł': "l",
	'ı': "i",
	'ħ': "h",
	'ŧ': "t",
}

// slugRune reports whether r survives into a slug. Marks are kept because
// foldMarks only leaves the ones that belong to a letter of another script.
func slugRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// foldMarks drops combining marks attached to Latin and Greek letters
// ("é" -> "e") and leaves other scripts intact, where marks such as the
// Devanagari vowel signs are part of the spelling.
func foldMarks(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	dropMarks := false
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			if !dropMarks {
				sb.WriteRune(r)
			}
			continue
		}
		dropMarks = unicode.In(r, unicode.Latin, unicode.Greek)
		sb.WriteRune(r)
	}
	return norm.NFC.String(sb.String())
}

// CanonicalPath returns the site path for a slug.
func CanonicalPath(slug string) string {
	return "/" + slug + "/"
}

// EscapePath percent-encodes a site path for use in an absolute URL. ASCII
// slug paths are returned unchanged.
func EscapePath(sitePath string) string {
	return (&url.URL{Path: sitePath}).EscapedPath()
}
