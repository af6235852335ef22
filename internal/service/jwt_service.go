package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"gradient-chat/internal/domain"
	"gradient-chat/internal/errs"
)

// JWTService emite, valida y revoca access tokens JWT.
type JWTService struct {
	secret  []byte
	ttl     time.Duration
	issuer  string
	revoked RevocationStore
	now     func() time.Time
}

type Claims struct {
	UserID   string `json:"uid"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

var (
	ErrJWTInvalid = fmt.Errorf("jwt invalid: %w", errs.ErrAuthRejected)
	ErrJWTExpired = fmt.Errorf("jwt expired: %w", errs.ErrAuthRejected)
	ErrJWTRevoked = fmt.Errorf("jwt revoked: %w", errs.ErrAuthRejected)
)

const defaultTokenTTL = 7 * 24 * time.Hour

func NewJWTService(secret string, ttl time.Duration, revoked RevocationStore) *JWTService {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	if revoked == nil {
		revoked = NewMemoryRevocationStore()
	}
	return &JWTService{
		secret:  []byte(secret),
		ttl:     ttl,
		issuer:  "gradient-chat",
		revoked: revoked,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Issue firma un access token para el usuario y devuelve su expiracion.
func (s *JWTService) Issue(user domain.User) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, ErrJWTInvalid
	}
	now := s.now()
	exp := now.Add(s.ttl)
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse valida firma, expiracion, emisor y revocacion.
func (s *JWTService) Parse(accessToken string) (Claims, error) {
	claims, err := s.parseToken(accessToken)
	if err != nil {
		return Claims{}, err
	}
	revoked, err := s.revoked.IsRevoked(claims.ID)
	if err != nil {
		return Claims{}, err
	}
	if revoked {
		return Claims{}, ErrJWTRevoked
	}
	return claims, nil
}

// Revoke invalida el token hasta que expire por si solo.
func (s *JWTService) Revoke(accessToken string) error {
	claims, err := s.parseToken(accessToken)
	if err != nil {
		return err
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return ErrJWTInvalid
	}
	return s.revoked.Revoke(claims.ID, claims.ExpiresAt.Time.Sub(s.now()))
}

func (s *JWTService) parseToken(tokenString string) (Claims, error) {
	if len(s.secret) == 0 || strings.TrimSpace(tokenString) == "" {
		return Claims{}, ErrJWTInvalid
	}
	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrJWTExpired
		}
		return Claims{}, ErrJWTInvalid
	}
	if strings.TrimSpace(claims.UserID) == "" || claims.Subject != claims.UserID {
		return Claims{}, ErrJWTInvalid
	}
	return claims, nil
}
