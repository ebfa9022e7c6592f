package validator

import (
	"strings"
	"unicode"
)

// commonPasswords is a short list of the most frequently leaked passwords
// that are at least eight characters long.
var commonPasswords = map[string]struct{}{}

func init() {
	for _, p := range strings.Fields(`
		password password1 password12 password123 password1234 passw0rd p@ssw0rd
		12345678 123456789 1234567890 0987654321 87654321 11111111 00000000
		qwertyuiop qwerty123 qwerty12 1q2w3e4r 1qaz2wsx qazwsxedc zaq12wsx
		iloveyou iloveyou1 sunshine princess football baseball basketball
		welcome1 welcome123 letmein1 trustno1 superman whatever dragon12
		abcd1234 abc12345 asdfghjk asdfasdf zxcvbnm1 monkey12 michael1
		starwars computer internet shadow12 master12 changeme administrator
		admin123 admin1234 default1 secret12 freedom1 jennifer jordan23
	`) {
		commonPasswords[p] = struct{}{}
	}
}

// IsCommonPassword reports whether pw is on the common password list, ignoring case.
func IsCommonPassword(pw string) bool {
	_, ok := commonPasswords[strings.ToLower(strings.TrimSpace(pw))]
	return ok
}

// IsNumeric reports whether s consists only of ASCII digits.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// MaxSimilarity is the ratio at or above which a password counts as too
// similar to one of the account attributes.
const MaxSimilarity = 0.7

// IsSimilarPassword reports whether pw is too similar to any of attrs. Each
// attribute is compared whole and split on non-alphanumeric runs, so the
// local part and domain of an email are checked separately.
func IsSimilarPassword(pw string, attrs ...string) bool {
	pw = strings.ToLower(pw)
	for _, attr := range attrs {
		attr = strings.ToLower(attr)
		if attr == "" {
			continue
		}

		parts := strings.FieldsFunc(attr, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
		})
		for _, part := range append(parts, attr) {
			if similarity(pw, part) >= MaxSimilarity {
				return true
			}
		}
	}
	return false
}

// similarity is an upper bound on the matching ratio of a and b: twice the
// size of their character multiset intersection over their total length.
func similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra)+len(rb) == 0 {
		return 0
	}

	counts := make(map[rune]int, len(rb))
	for _, r := range rb {
		counts[r]++
	}

	matches := 0
	for _, r := range ra {
		if counts[r] > 0 {
			counts[r]--
			matches++
		}
	}

	return 2 * float64(matches) / float64(len(ra)+len(rb))
}
