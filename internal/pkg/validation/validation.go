package validation

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// letters, spaces, hyphens, apostrophes
var fullnameRe = regexp.MustCompile(`^[A-Za-z\s\-']+$`)

// MaxTitleLength bounds project titles.
const MaxTitleLength = 200

func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// IsValidPassword requires 8+ characters with a letter, a digit and a symbol.
func IsValidPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	hasLetter, hasDigit, hasSpecial := false, false, false
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	return hasLetter && hasDigit && hasSpecial
}

func IsValidFullname(fullname string) bool {
	return fullname != "" && fullnameRe.MatchString(fullname)
}

// IsValidTitle reports whether a trimmed project title is non-empty and within MaxTitleLength runes.
func IsValidTitle(title string) bool {
	t := strings.TrimSpace(title)
	return t != "" && len([]rune(t)) <= MaxTitleLength
}

// ParseUUIDParam parses a path parameter, returning ok=false for empty or malformed ids.
func ParseUUIDParam(s string) (uuid.UUID, bool) {
	if s == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
