// Package auth signs claim sets into HS256 access tokens and recovers them.
package auth

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/claims"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// ErrReservedClaim is returned by Issue for a claim whose type is a payload
// field of the token itself (see claims.IsReserved).
var ErrReservedClaim = errors.New("reserved claim type")

// TokenManager issues and validates access tokens with a single symmetric
// key. The key is fixed for the lifetime of the process.
type TokenManager struct {
	key      []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewTokenManager derives the signing key from the UTF-8 bytes of secret.
// An empty secret or a non-positive lifetime is a configuration error.
func NewTokenManager(secret string, lifetime time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("token signing secret is empty")
	}
	if lifetime <= 0 {
		return nil, errors.New("token lifetime must be positive")
	}
	return &TokenManager{key: []byte(secret), lifetime: lifetime, now: time.Now}, nil
}

// Issue signs set into a token that expires after the configured lifetime.
// Claim types with a single value are encoded as strings, types with several
// values as string arrays. A set holding a reserved claim type is refused
// with ErrReservedClaim.
func (m *TokenManager) Issue(set claims.Set) (string, error) {
	payload := jwt.MapClaims{}

	var order []string
	grouped := map[string][]string{}
	for _, c := range set.Values() {
		if claims.IsReserved(c.Type) {
			return "", fmt.Errorf("%w: %q", ErrReservedClaim, c.Type)
		}
		if _, ok := grouped[c.Type]; !ok {
			order = append(order, c.Type)
		}
		grouped[c.Type] = append(grouped[c.Type], c.Value)
	}
	for _, t := range order {
		if vals := grouped[t]; len(vals) == 1 {
			payload[t] = vals[0]
		} else {
			payload[t] = vals
		}
	}
	payload["exp"] = jwt.NewNumericDate(m.now().Add(m.lifetime))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)
	signed, err := token.SignedString(m.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// PrincipalFromExpiredToken checks the signature of a token that may already
// be past its lifetime and returns its claims. Expiry, issuer and audience
// are not checked. Anything but an HS256 signature made with our key is
// rejected with common.ErrInvalidToken.
func (m *TokenManager) PrincipalFromExpiredToken(tokenString string) (*claims.Principal, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	return m.parse(parser, tokenString)
}

// ValidateAccessToken is PrincipalFromExpiredToken plus an expiry check.
// Expired tokens yield common.ErrTokenExpired.
func (m *TokenManager) ValidateAccessToken(tokenString string) (*claims.Principal, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	return m.parse(parser, tokenString)
}

func (m *TokenManager) parse(parser *jwt.Parser, tokenString string) (*claims.Principal, error) {
	payload := jwt.MapClaims{}

	token, err := parser.ParseWithClaims(tokenString, payload, m.keyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return principalFrom(payload)
}

func (m *TokenManager) keyFunc(t *jwt.Token) (any, error) {
	if t.Method != jwt.SigningMethodHS256 {
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return m.key, nil
}

func principalFrom(payload jwt.MapClaims) (*claims.Principal, error) {
	p := &claims.Principal{}

	exp, err := payload.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if exp != nil {
		p.ExpiresAt = exp.Time
	}

	keys := make([]string, 0, len(payload))
	for k := range payload {
		if !claims.IsReserved(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		switch v := payload[k].(type) {
		case []any:
			for _, item := range v {
				p.Claims.Add(models.Claim{Type: k, Value: fmt.Sprint(item)})
			}
		case string:
			p.Claims.Add(models.Claim{Type: k, Value: v})
		default:
			p.Claims.Add(models.Claim{Type: k, Value: fmt.Sprint(v)})
		}
	}

	return p, nil
}
