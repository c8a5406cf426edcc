// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"regexp"
	"strings"
)

// isbnCandidate matches 10 to 17 characters of digits, hyphens, and X.
var isbnCandidate = regexp.MustCompile(`[0-9Xx][0-9Xx-]{8,15}[0-9Xx]`)

// ExtractISBN pulls an ISBN-like code out of free text such as
// "8966262287 9788966262281 (93000)". Hyphens are dropped and X is
// upper-cased. A 13-digit code wins over a 10-character one; when no
// candidate is valid the result is empty.
func ExtractISBN(s string) string {
	var isbn10 string
	for _, m := range isbnCandidate.FindAllString(s, -1) {
		code := strings.ToUpper(strings.ReplaceAll(m, "-", ""))
		switch {
		case isISBN13(code):
			return code
		case isbn10 == "" && isISBN10(code):
			isbn10 = code
		}
	}
	return isbn10
}

func isISBN13(code string) bool {
	return len(code) == 13 && allDigits(code)
}

func isISBN10(code string) bool {
	if len(code) != 10 || !allDigits(code[:9]) {
		return false
	}
	last := code[9]
	return last == 'X' || (last >= '0' && last <= '9')
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
