package auth

import (
	"errors"
	"net/http"
	"strings"
)

// ErrMalformedHeader is returned for an Authorization header that names the
// Bearer scheme but does not carry exactly one token.
var ErrMalformedHeader = errors.New("malformed authorization header")

// Extractor pulls a raw token out of a request. An empty token with a nil
// error means the request carries none.
type Extractor interface {
	Extract(r *http.Request) (string, error)
}

type ExtractorFunc func(r *http.Request) (string, error)

func (f ExtractorFunc) Extract(r *http.Request) (string, error) {
	return f(r)
}

func CookieExtractor(name string) Extractor {
	return ExtractorFunc(func(r *http.Request) (string, error) {
		c, err := r.Cookie(name)
		if err != nil {
			return "", nil
		}
		return c.Value, nil
	})
}

func BearerExtractor() Extractor {
	return ExtractorFunc(func(r *http.Request) (string, error) {
		parts := strings.Fields(r.Header.Get("Authorization"))
		if len(parts) == 0 || parts[0] != "Bearer" {
			return "", nil
		}
		if len(parts) != 2 {
			return "", ErrMalformedHeader
		}
		return parts[1], nil
	})
}
