package utils // package utils provides helper functions for token creation and password hashing

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// DefaultTokenTTL is used when no token lifetime is configured.
const DefaultTokenTTL = 24 * time.Hour

var (
	// ErrConfiguration is returned when the signing secret is empty.  It is a
	// startup problem and callers should refuse to serve requests.
	ErrConfiguration = errors.New("jwt secret is not configured")
	// ErrTokenInvalid covers bad signatures, foreign algorithms and malformed payloads.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned for a correctly signed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// Claim is the identity carried inside an access token.  It is a snapshot
// taken at issuance time, not a live reference to the account.
type Claim struct {
	AccountID string
	Username  string
	Roles     []string
}

// HasRole reports whether the claim carries role.
func (c Claim) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// accessClaims is the JSON payload of the token: sub holds the account ID.
type accessClaims struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// AccessToken represents a signed JWT access token along with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// TokenIssuer signs HS256 access tokens with a fixed secret and lifetime.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer builds an issuer.  A non-positive ttl falls back to
// DefaultTokenTTL; an empty secret yields ErrConfiguration.
func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, ErrConfiguration
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL returns the lifetime applied to issued tokens.
func (i *TokenIssuer) TTL() time.Duration { return i.ttl }

// Issue serializes the claim together with iat/exp and signs it.
func (i *TokenIssuer) Issue(c Claim) (AccessToken, error) {
	now := i.now().UTC()
	exp := now.Add(i.ttl)
	roles := c.Roles
	if roles == nil {
		roles = []string{}
	}
	claims := accessClaims{
		Username: c.Username,
		Roles:    roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.AccountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(i.secret)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// TokenVerifier checks tokens produced by a TokenIssuer sharing the same secret.
type TokenVerifier struct {
	secret []byte
	now    func() time.Time
}

// NewTokenVerifier builds a verifier.  An empty secret yields ErrConfiguration.
func NewTokenVerifier(secret string) (*TokenVerifier, error) {
	if secret == "" {
		return nil, ErrConfiguration
	}
	return &TokenVerifier{secret: []byte(secret), now: time.Now}, nil
}

// Verify checks signature and expiry and returns the embedded claim.  Only
// HS256 is accepted.  Expired tokens are reported as ErrTokenExpired only
// when their signature checks out; everything else is ErrTokenInvalid.
func (v *TokenVerifier) Verify(raw string) (Claim, error) {
	claims := &accessClaims{}
	_, err := v.parse(raw, claims, jwt.WithExpirationRequired(), jwt.WithTimeFunc(v.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && v.signatureValid(raw) {
			return Claim{}, ErrTokenExpired
		}
		return Claim{}, ErrTokenInvalid
	}
	if claims.Subject == "" {
		return Claim{}, ErrTokenInvalid
	}
	roles := claims.Roles
	if roles == nil {
		roles = []string{}
	}
	return Claim{AccountID: claims.Subject, Username: claims.Username, Roles: roles}, nil
}

// signatureValid re-parses without claim validation so an expired token is
// never reported as "expired" unless it was really signed by us.
func (v *TokenVerifier) signatureValid(raw string) bool {
	_, err := v.parse(raw, &accessClaims{}, jwt.WithoutClaimsValidation())
	return err == nil
}

func (v *TokenVerifier) parse(raw string, claims *accessClaims, opts ...jwt.ParserOption) (*jwt.Token, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		// Type assert the signing method to HMAC; reject others.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return v.secret, nil
	}, opts...)
}
