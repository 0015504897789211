package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// JWTService emite y valida bearer tokens firmados con HS256. El claim typ
// separa access de refresh; la separación se verifica en ParseAndValidate y
// en el orquestador, nunca queda a criterio del caller.
type JWTService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	leeway     time.Duration
	issuer     string
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type Claims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

func NewJWTService(secret string, accessTTL, refreshTTL, leeway time.Duration) (*JWTService, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt signing secret is required")
	}
	if accessTTL <= 0 {
		accessTTL = 24 * time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	if leeway < 0 {
		leeway = 0
	}
	return &JWTService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		leeway:     leeway,
		issuer:     "auth-backend",
	}, nil
}

// IssueAccessToken firma un access token para el subject (email del usuario).
func (s *JWTService) IssueAccessToken(subject string) (string, error) {
	return s.signToken(subject, s.accessTTL, TokenTypeAccess)
}

// IssueRefreshToken firma un refresh token con TTL largo.
func (s *JWTService) IssueRefreshToken(subject string) (string, error) {
	return s.signToken(subject, s.refreshTTL, TokenTypeRefresh)
}

// GeneratePair emite el par access+refresh para el subject.
func (s *JWTService) GeneratePair(subject string) (TokenPair, error) {
	access, err := s.IssueAccessToken(subject)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.IssueRefreshToken(subject)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

// ParseAndValidate verifica firma, expiración e issuer y devuelve los claims.
// Toda falla colapsa en ErrInvalidToken: el caller nunca distingue expiración
// de manipulación.
func (s *JWTService) ParseAndValidate(tokenString string) (Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return Claims{}, ErrInvalidToken
	}
	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(s.leeway),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// IsRefreshToken mira el claim typ sin verificar la firma. Sirve para
// rechazar temprano tokens del tipo equivocado; el subject solo se usa
// después de pasar por ParseAndValidate.
func (s *JWTService) IsRefreshToken(tokenString string) bool {
	if strings.TrimSpace(tokenString) == "" {
		return false
	}
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, &claims); err != nil {
		return false
	}
	return claims.TokenType == TokenTypeRefresh
}

func (s *JWTService) signToken(subject string, ttl time.Duration, tokenType string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
