package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTManager handles generation and validation of JWT tokens: the
// access/refresh pair plus the signed envelope that transports email
// verification tokens.
type JWTManager struct {
	AccessSecret  []byte
	RefreshSecret []byte
	EmailSecret   []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

func NewJWTManager(accessSecret, refreshSecret, emailSecret string, accessTTL, refreshTTL time.Duration) *JWTManager {
	return &JWTManager{
		AccessSecret:  []byte(accessSecret),
		RefreshSecret: []byte(refreshSecret),
		EmailSecret:   []byte(emailSecret),
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
	}
}

type Claims struct {
	AccountID string `json:"uid"`
	jwt.RegisteredClaims
}

// EmailClaims is the verification envelope payload: the address and the
// opaque token stored on the account. Both must match at verify time.
type EmailClaims struct {
	Email             string `json:"email"`
	VerificationToken string `json:"vt"`
	jwt.RegisteredClaims
}

func (m *JWTManager) GenerateAccessToken(accountID string) (string, time.Time, error) {
	return m.signed(accountID, m.AccessSecret, m.AccessTTL)
}

func (m *JWTManager) GenerateRefreshToken(accountID string) (string, time.Time, error) {
	return m.signed(accountID, m.RefreshSecret, m.RefreshTTL)
}

func (m *JWTManager) signed(accountID string, secret []byte, ttl time.Duration) (string, time.Time, error) {
	exp := time.Now().Add(ttl)
	claims := &Claims{
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			// jti keeps tokens minted in the same second distinct, so
			// the refresh ledger can track them individually.
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(secret)
	return s, exp, err
}

func (m *JWTManager) ParseAccessToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	if err := parseToken(tokenStr, m.AccessSecret, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (m *JWTManager) ParseRefreshToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	if err := parseToken(tokenStr, m.RefreshSecret, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// GenerateEmailEnvelope signs {email, token} for transport in a
// verification link. The envelope itself does not expire; the stored
// token is cleared once consumed.
func (m *JWTManager) GenerateEmailEnvelope(email, verificationToken string) (string, error) {
	claims := &EmailClaims{
		Email:             email,
		VerificationToken: verificationToken,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.EmailSecret)
}

func (m *JWTManager) ParseEmailEnvelope(tokenStr string) (*EmailClaims, error) {
	claims := &EmailClaims{}
	if err := parseToken(tokenStr, m.EmailSecret, claims); err != nil {
		return nil, err
	}
	if claims.Email == "" || claims.VerificationToken == "" {
		return nil, errors.New("incomplete envelope")
	}
	return claims, nil
}

func parseToken(tokenStr string, secret []byte, claims jwt.Claims) error {
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return err
	}
	if !tkn.Valid {
		return errors.New("invalid token")
	}
	return nil
}
