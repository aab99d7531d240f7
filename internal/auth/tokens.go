// Package auth turns HS256 bearer tokens into the numeric user id the cart
// operates on.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// ErrInvalidToken is returned for any token that cannot be trusted.
var ErrInvalidToken = errors.New("auth: invalid token")

// Verifier verifies access tokens signed with a shared secret. The subject
// claim carries the user id.
type Verifier struct {
	secret []byte
	issuer string
	skew   time.Duration
	now    func() time.Time
}

const algorithm = jwa.HS256

// NewVerifier builds an HS256 verifier for tokens issued by issuer.
func NewVerifier(secret, issuer string) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: secret is required")
	}
	return &Verifier{
		secret: []byte(secret),
		issuer: issuer,
		skew:   30 * time.Second,
		now:    time.Now,
	}, nil
}

// WithClock overrides the time source used for expiry checks.
func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	v.now = now
	return v
}

// UserID verifies token and returns the user id in its subject.
func (v *Verifier) UserID(token string) (int64, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, ErrInvalidToken
	}
	alg, err := tokenAlgorithm(token)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if alg != algorithm {
		return 0, fmt.Errorf("%w: unexpected algorithm %s", ErrInvalidToken, alg)
	}
	parsed, err := jwt.ParseString(token, jwt.WithKey(alg, v.secret), jwt.WithValidate(false))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if err := jwt.Validate(parsed, v.validateOptions()...); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	id, err := strconv.ParseInt(parsed.Subject(), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}
	return id, nil
}

// Issue signs a token for userID valid for ttl. It backs local tooling and
// tests; production tokens come from the account service.
func (v *Verifier) Issue(userID int64, ttl time.Duration) (string, error) {
	now := v.now()
	tok, err := jwt.NewBuilder().
		Issuer(v.issuer).
		Subject(strconv.FormatInt(userID, 10)).
		IssuedAt(now).
		NotBefore(now).
		Expiration(now.Add(ttl)).
		Build()
	if err != nil {
		return "", fmt.Errorf("auth: build token: %w", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(algorithm, v.secret))
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return string(signed), nil
}

// validateOptions checks the time claims against the verifier clock and
// requires a subject.
func (v *Verifier) validateOptions() []jwt.ValidateOption {
	opts := []jwt.ValidateOption{
		jwt.WithClock(jwt.ClockFunc(v.now)),
		jwt.WithAcceptableSkew(v.skew),
		jwt.WithRequiredClaim(jwt.SubjectKey),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	return opts
}

func tokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	msg, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	sigs := msg.Signatures()
	if len(sigs) != 1 {
		return "", fmt.Errorf("expected one signature, got %d", len(sigs))
	}
	alg := sigs[0].ProtectedHeaders().Algorithm()
	if alg == "" {
		return "", errors.New("token missing algorithm")
	}
	return alg, nil
}
