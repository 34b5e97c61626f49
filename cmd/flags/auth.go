package flags

import (
	"os"

	"github.com/spf13/pflag"
)

// AuthFlags configures credential signing and the principal lookup cache.
type AuthFlags struct {
	JWTSecret     string
	RedisURL      string
	SecureCookies bool
}

func NewAuthFlags() *AuthFlags {
	return &AuthFlags{
		JWTSecret: os.Getenv("NYAYSAHAY_JWT_SECRET"),
		RedisURL:  os.Getenv("REDIS_URL"),
	}
}

func (f *AuthFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.RedisURL, "redis-url", f.RedisURL, "Redis URL for caching principal lookups (optional)")
	fs.BoolVar(&f.SecureCookies, "secure-cookies", f.SecureCookies, "Set the Secure attribute on session cookies")
}
