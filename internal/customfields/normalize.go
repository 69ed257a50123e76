// Package customfields validates and normalizes the open custom_fields
// JSON bag against admin-defined field definitions.
package customfields

import "strings"

// accentReplacer strips the accents and apostrophes that show up in
// user-typed field names ("Città" -> "citta", "qta'" -> "qta").
var accentReplacer = strings.NewReplacer(
	"à", "a", "á", "a", "â", "a", "ä", "a",
	"è", "e", "é", "e", "ê", "e",
	"ì", "i", "í", "i",
	"ò", "o", "ó", "o",
	"ù", "u", "ú", "u",
	"'", "",
)

// NormalizeKey normalizes a key for alias matching: trim, lowercase,
// strip common accents and apostrophes.
func NormalizeKey(s string) string {
	return accentReplacer.Replace(strings.ToLower(strings.TrimSpace(s)))
}
