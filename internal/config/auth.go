package config

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

type Auth struct {
	SigningKey string        `env:"JWT_SIGNING_KEY,required,notEmpty"`
	Issuer     string        `env:"JWT_ISSUER" envDefault:"nfcstore"`
	AccessTTL  time.Duration `env:"JWT_ACCESS_TTL" envDefault:"168h"`
	RefreshTTL time.Duration `env:"JWT_REFRESH_TTL" envDefault:"720h"`

	AccessCookie   string   `env:"AUTH_ACCESS_COOKIE" envDefault:"jwt_access"`
	RefreshCookie  string   `env:"AUTH_REFRESH_COOKIE" envDefault:"jwt_refresh"`
	CookieDomain   string   `env:"AUTH_COOKIE_DOMAIN"`
	CookieSecure   bool     `env:"AUTH_COOKIE_SECURE" envDefault:"true"`
	CookieSameSite SameSite `env:"AUTH_COOKIE_SAMESITE" envDefault:"None"`

	BcryptCost int `env:"AUTH_BCRYPT_COST" envDefault:"12"`
}

// SameSite wraps [http.SameSite] so it can be read from the environment.
type SameSite http.SameSite

// UnmarshalText implements [encoding.TextUnmarshaler].
func (s *SameSite) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "none":
		*s = SameSite(http.SameSiteNoneMode)
	case "lax":
		*s = SameSite(http.SameSiteLaxMode)
	case "strict":
		*s = SameSite(http.SameSiteStrictMode)
	case "", "default":
		*s = SameSite(http.SameSiteDefaultMode)
	default:
		return fmt.Errorf("unknown same site mode: %s", text)
	}
	return nil
}
