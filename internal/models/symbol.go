package models

import "regexp"

var symbolPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,19}$`)

// ValidSymbol reports whether s is usable as an instrument symbol: up to 20
// letters, digits, dots, underscores or dashes, starting with a letter or digit
func ValidSymbol(s string) bool {
	return symbolPattern.MatchString(s)
}
