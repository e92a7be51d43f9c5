package security

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cwrk-planet/kcd-platform/internal/errs"

	"github.com/golang-jwt/jwt"
)

const (
	AlgHS256 = "HS256"
	AlgRS256 = "RS256"
)

// JWTSigner выпускает и проверяет access-токены.
// HS256 использует общий секрет, RS256: пару ключей.
type JWTSigner struct {
	method    jwt.SigningMethod
	signKey   any
	verifyKey any
	issuer    string
	audience  string
	ttl       time.Duration
	clockSkew time.Duration
	now       func() time.Time
}

func NewHS256Signer(secret []byte, issuer, audience string, ttl, clockSkew time.Duration) *JWTSigner {
	return &JWTSigner{
		method:    jwt.SigningMethodHS256,
		signKey:   secret,
		verifyKey: secret,
		issuer:    issuer,
		audience:  audience,
		ttl:       ttl,
		clockSkew: clockSkew,
		now:       time.Now,
	}
}

func NewRS256Signer(private *rsa.PrivateKey, public *rsa.PublicKey, issuer, audience string, ttl, clockSkew time.Duration) *JWTSigner {
	return &JWTSigner{
		method:    jwt.SigningMethodRS256,
		signKey:   private,
		verifyKey: public,
		issuer:    issuer,
		audience:  audience,
		ttl:       ttl,
		clockSkew: clockSkew,
		now:       time.Now,
	}
}

func (s *JWTSigner) TTL() time.Duration {
	return s.ttl
}

type AccessClaims struct {
	jwt.StandardClaims // Subject = email пользователя
}

// SignAccessToken выпускает JWT с sub=subject и exp=now+ttl
func (s *JWTSigner) SignAccessToken(subject string, now time.Time) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", errs.ErrInvalidSubject
	}
	claims := AccessClaims{
		StandardClaims: jwt.StandardClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			Audience:  s.audience,
			IssuedAt:  now.Unix(),
			NotBefore: now.Add(-s.clockSkew).Unix(),
			ExpiresAt: now.Add(s.ttl).Unix(),
		},
	}
	token := jwt.NewWithClaims(s.method, claims)

	return token.SignedString(s.signKey)
}

func (s *JWTSigner) ParseAndValidate(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	parser := &jwt.Parser{SkipClaimsValidation: true}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != s.method.Alg() {
			return nil, errs.ErrInvalidToken
		}
		return s.verifyKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, errs.ErrInvalidToken
	}

	// пустые issuer/audience в конфиге: не проверяем
	if s.issuer != "" && !claims.VerifyIssuer(s.issuer, true) {
		return nil, errs.ErrInvalidIssuer
	}
	if s.audience != "" && !claims.VerifyAudience(s.audience, true) {
		return nil, errs.ErrInvalidAudience
	}

	// временные клеймы с допуском clockSkew
	now := s.now()
	nbf := time.Unix(claims.NotBefore, 0).Add(-s.clockSkew)
	exp := time.Unix(claims.ExpiresAt, 0).Add(s.clockSkew)
	if claims.ExpiresAt == 0 || now.Before(nbf) || now.After(exp) {
		return nil, errs.ErrTokenExpired
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, errs.ErrInvalidSubject
	}

	return claims, nil
}

// IsTokenError: ошибка самого токена (подпись, срок, клеймы)
func IsTokenError(err error) bool {
	return errors.Is(err, errs.ErrInvalidToken) ||
		errors.Is(err, errs.ErrInvalidIssuer) ||
		errors.Is(err, errs.ErrInvalidAudience) ||
		errors.Is(err, errs.ErrTokenExpired) ||
		errors.Is(err, errs.ErrInvalidSubject)
}

func LoadRSAPrivateKeyFromPEM(path string) (*rsa.PrivateKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(b)
	if block == nil {
		return nil, fmt.Errorf("no PEM block in %s", path)
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	k, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	pk, ok := k.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("not RSA private key")
	}

	return pk, nil
}

func LoadRSAPublicKeyFromPEM(path string) (*rsa.PublicKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pub, err := jwt.ParseRSAPublicKeyFromPEM(b)
	if err != nil {
		return nil, err
	}

	return pub, nil
}
