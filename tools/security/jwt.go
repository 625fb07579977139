package security

import (
	"strings"
	"time"

	"CookTalk/tools/errs"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Options controls signing and TTL parameters.
type Options struct {
	Secret []byte        // HMAC key (from ENV/KMS in production)
	Alg    string        // HS256/HS384/HS512 (default HS256)
	TTL    time.Duration // token validity (default 2h)
}

func DefaultOptions(secret []byte) Options {
	return Options{Secret: secret, Alg: "HS256", TTL: 2 * time.Hour}
}

// Generate signs a token for userID. Used by the surrounding application's
// auth flow and by tests; the gateway itself only verifies.
func Generate(opts Options, userID string) (token string, expireAt time.Time, err error) {
	method, err := signingMethod(opts.Alg)
	if err != nil {
		return "", time.Time{}, err
	}
	if opts.TTL <= 0 {
		opts.TTL = 2 * time.Hour
	}
	now := time.Now()
	exp := now.Add(opts.TTL)

	claims := jwtlib.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": exp.Unix(),
	}
	signed, err := jwtlib.NewWithClaims(method, claims).SignedString(opts.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify validates the presented bearer token and extracts the user id.
// Malformed, expired, and signature-invalid tokens all map to
// errs.ErrInvalidCredential; callers must not learn which it was.
func Verify(opts Options, token string) (string, error) {
	if token == "" {
		return "", errs.ErrInvalidCredential
	}
	if _, err := signingMethod(opts.Alg); err != nil {
		return "", err
	}
	parsed, err := jwtlib.Parse(token, func(t *jwtlib.Token) (interface{}, error) {
		// HMAC family only
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errs.ErrInvalidCredential.WithDetail("unexpected alg")
		}
		return opts.Secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", errs.ErrInvalidCredential
	}
	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return "", errs.ErrInvalidCredential
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", errs.ErrInvalidCredential.WithDetail("missing sub")
	}
	return sub, nil
}

func signingMethod(alg string) (jwtlib.SigningMethod, error) {
	switch strings.ToUpper(strings.TrimSpace(alg)) {
	case "", "HS256":
		return jwtlib.SigningMethodHS256, nil
	case "HS384":
		return jwtlib.SigningMethodHS384, nil
	case "HS512":
		return jwtlib.SigningMethodHS512, nil
	default:
		return nil, errs.ErrInvalidCredential.WithDetail("unsupported alg: " + alg)
	}
}
