// Package naming translates between API-facing type names ("school-classes"),
// store-facing model names ("SchoolClass") and human readable labels.
package naming

import (
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
)

// ModelName converts a dashed, plural API type into a PascalCase singular
// model name. Only the final word is singularized: "school-classes" becomes
// "SchoolClass".
func ModelName(typ string) string {
	words := strings.Split(typ, "-")
	last := len(words) - 1
	words[last] = inflection.Singular(words[last])

	var b strings.Builder
	for _, word := range words {
		b.WriteString(upperFirst(word))
	}
	return b.String()
}

// APIType converts a model name into its API type by inserting a hyphen before
// each internal uppercase letter, lower-casing and pluralizing:
// "SchoolClass" becomes "school-classes".
func APIType(modelName string) string {
	var b strings.Builder
	for i, r := range modelName {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteRune('-')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return inflection.Plural(b.String())
}

// CollectionName returns the storage collection used for a model:
// "SchoolClass" becomes "school_classes".
func CollectionName(modelName string) string {
	return inflection.Plural(snakeCase(modelName))
}

// FriendlyName turns a field path or model name into a label. Segments split
// on ".", "_", "-" and whitespace are capitalized and joined, then the result
// is re-split into words where an uppercase run is kept together as an
// acronym: "inMLBTeam" becomes "In MLB Team" and "created.at" "Created At".
func FriendlyName(s string) string {
	segments := strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || unicode.IsSpace(r)
	})

	var joined strings.Builder
	for _, segment := range segments {
		joined.WriteString(upperFirst(segment))
	}

	return strings.Join(splitWords(joined.String()), " ")
}

// splitWords segments a PascalCase string. A word starts at an uppercase
// letter and continues with either further capitals that are not followed
// by a lowercase run, or with a lowercase run (digits count as lowercase).
func splitWords(s string) []string {
	runes := []rune(s)
	words := make([]string, 0, 4)

	for i := 0; i < len(runes); {
		if !unicode.IsUpper(runes[i]) {
			// Leading characters without a capital form their own word.
			j := i
			for j < len(runes) && !unicode.IsUpper(runes[j]) {
				j++
			}
			words = append(words, string(runes[i:j]))
			i = j
			continue
		}

		j := i + 1
		if j < len(runes) && unicode.IsUpper(runes[j]) {
			for j < len(runes) && unicode.IsUpper(runes[j]) {
				j++
			}
			// The last capital of a run that precedes a lowercase run starts
			// the next word: "MLBTeam" -> "MLB", "Team".
			if j < len(runes) && isLowerRun(runes[j]) {
				j--
			}
		} else {
			for j < len(runes) && isLowerRun(runes[j]) {
				j++
			}
		}

		words = append(words, string(runes[i:j]))
		i = j
	}

	return words
}

// snakeCase lower-cases a PascalCase name with underscores at word
// boundaries, keeping acronyms together ("HTTPRequest" -> "http_request").
func snakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)

	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteRune('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

func isLowerRun(r rune) bool {
	return unicode.IsLower(r) || unicode.IsDigit(r)
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
