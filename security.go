package main

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLen = 6

	resetTokenType = "password_reset"
	resetTokenTTL  = time.Hour
)

// hashPassword returns a salted bcrypt hash of the plaintext. The cost and
// salt are embedded in the output.
func hashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// checkPassword reports whether plain matches the stored hash.
func checkPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// Claims carries the subject plus an optional token type discriminator so
// password-reset tokens can't be confused with access tokens.
type Claims struct {
	TokenType string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

var errInvalidToken = errors.New("invalid token")

// TokenService signs and verifies bearer tokens with a symmetric secret.
// Constructed once at startup from Config; read-only afterwards.
type TokenService struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
}

func NewTokenService(cfg Config) *TokenService {
	method := jwt.GetSigningMethod(cfg.Algorithm)
	if method == nil {
		method = jwt.SigningMethodHS256
	}
	return &TokenService{
		secret: []byte(cfg.SecretKey),
		method: method,
		ttl:    cfg.AccessTokenTTL,
	}
}

// Issue signs a token for subject expiring after ttl. tokenType lands in the
// "type" claim when non-empty.
func (s *TokenService) Issue(subject, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
}

// IssueAccessToken issues a plain bearer token with the configured default ttl.
func (s *TokenService) IssueAccessToken(username string) (string, error) {
	return s.Issue(username, "", s.ttl)
}

func (s *TokenService) parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{s.method.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errInvalidToken
	}
	return claims, nil
}

// Verify returns the subject of a valid token. Bad signature, expiry, and a
// missing sub claim all fail.
func (s *TokenService) Verify(tokenStr string) (string, error) {
	claims, err := s.parse(tokenStr)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errInvalidToken
	}
	return claims.Subject, nil
}

// IssueResetToken issues the short-lived password-reset variant keyed by
// email.
func (s *TokenService) IssueResetToken(email string) (string, error) {
	return s.Issue(email, resetTokenType, resetTokenTTL)
}

// VerifyResetToken is a non-throwing probe: it returns the email only when
// the token is valid AND carries the password_reset type.
func (s *TokenService) VerifyResetToken(tokenStr string) (string, bool) {
	claims, err := s.parse(tokenStr)
	if err != nil || claims.TokenType != resetTokenType || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}
