package domain

import "regexp"

// symbolRegex bounds a ticker to the width of a 32-byte identifier.
var symbolRegex = regexp.MustCompile(`^[A-Za-z0-9-]{1,32}$`)

// Symbol is the short ticker that identifies a token on the exchange.
type Symbol string

// ParseSymbol validates s and returns it as a Symbol.
func ParseSymbol(s string) (Symbol, error) {
	if !symbolRegex.MatchString(s) {
		return "", &ValidationError{
			Message: "symbol must match ^[A-Za-z0-9-]{1,32}$",
		}
	}
	return Symbol(s), nil
}

func (s Symbol) String() string {
	return string(s)
}
