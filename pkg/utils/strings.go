package utils

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlnum    = regexp.MustCompile(`[^A-Za-z0-9]+`)
	nonIdentRun = regexp.MustCompile(`[^A-Za-z0-9_]`)
)

// phpReserved lists words PHP refuses as class names or that read badly as variables.
var phpReserved = map[string]struct{}{
	"abstract": {}, "and": {}, "array": {}, "as": {}, "break": {}, "callable": {}, "case": {},
	"catch": {}, "class": {}, "clone": {}, "const": {}, "continue": {}, "declare": {},
	"default": {}, "do": {}, "echo": {}, "else": {}, "elseif": {}, "empty": {}, "enum": {},
	"extends": {}, "final": {}, "finally": {}, "fn": {}, "for": {}, "foreach": {},
	"function": {}, "global": {}, "goto": {}, "if": {}, "implements": {}, "include": {},
	"instanceof": {}, "insteadof": {}, "interface": {}, "isset": {}, "list": {}, "match": {},
	"namespace": {}, "new": {}, "or": {}, "print": {}, "private": {}, "protected": {},
	"public": {}, "readonly": {}, "require": {}, "return": {}, "static": {}, "switch": {},
	"this": {}, "throw": {}, "trait": {}, "try": {}, "unset": {}, "use": {}, "var": {},
	"while": {}, "xor": {}, "yield": {},
}

// RemoveAccents removes accents from a string, converting accented characters to their base forms
func RemoveAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// SplitCamelCase splits a camelCase or PascalCase string into words.
// Runs of capitals are kept together ("XMLHttp" -> "XML", "Http").
func SplitCamelCase(s string) []string {
	if s == "" {
		return nil
	}

	var parts []string
	var current strings.Builder

	rs := []rune(s)
	for i, r := range rs {
		isNewWord := false
		if i > 0 && isUppercase(r) {
			if !isUppercase(rs[i-1]) {
				isNewWord = true
			} else if i < len(rs)-1 && !isUppercase(rs[i+1]) {
				isNewWord = true
			}
		}

		if isNewWord && current.Len() > 0 {
			parts = append(parts, current.String())
			current.Reset()
		}

		current.WriteRune(r)
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}

func isUppercase(r rune) bool {
	return r >= 'A' && r <= 'Z'
}

// SplitWords splits an identifier into words across camelCase, PascalCase,
// snake_case, kebab-case and space separated forms.
func SplitWords(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	s = RemoveAccents(s)

	var words []string
	for _, part := range nonAlnum.Split(s, -1) {
		if part == "" {
			continue
		}
		words = append(words, SplitCamelCase(part)...)
	}
	return words
}

// ToPascalCase converts a string to PascalCase
func ToPascalCase(s string) string {
	words := SplitWords(s)
	var b strings.Builder
	for _, w := range words {
		b.WriteString(strings.ToUpper(w[:1]))
		if len(w) > 1 {
			b.WriteString(strings.ToLower(w[1:]))
		}
	}
	return b.String()
}

// ToCamelCase converts a string to camelCase
func ToCamelCase(s string) string {
	p := ToPascalCase(s)
	if p == "" {
		return ""
	}
	return strings.ToLower(p[:1]) + p[1:]
}

// ToSnakeCase converts a string to snake_case
func ToSnakeCase(s string) string {
	words := SplitWords(s)
	for i := range words {
		words[i] = strings.ToLower(words[i])
	}
	return strings.Join(words, "_")
}

// ToKebabCase converts a string to kebab-case
func ToKebabCase(s string) string {
	words := SplitWords(s)
	for i := range words {
		words[i] = strings.ToLower(words[i])
	}
	return strings.Join(words, "-")
}

// UcFirst uppercases the first letter and leaves the rest untouched.
func UcFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// LcFirst lowercases the first letter and leaves the rest untouched.
func LcFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

// PHPVariableName turns a raw schema name into a usable PHP variable name
// (without the leading "$").
func PHPVariableName(s string) string {
	name := ToCamelCase(s)
	if name == "" {
		name = nonIdentRun.ReplaceAllString(s, "_")
	}
	if name == "" {
		return "value"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "p" + name
	}
	if name == "this" {
		return "thisValue"
	}
	return name
}

// PHPClassName turns a raw schema or tag name into a PHP class name.
func PHPClassName(s string) string {
	name := UcFirst(nonIdentRun.ReplaceAllString(RemoveAccents(s), "_"))
	if name == "" {
		return "Model"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "Model" + name
	}
	if IsPHPReserved(name) {
		name += "Model"
	}
	return name
}

// IsPHPReserved reports whether s is a PHP keyword (case-insensitive).
func IsPHPReserved(s string) bool {
	_, ok := phpReserved[strings.ToLower(s)]
	return ok
}
