package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"bookreview/internal/models"
)

const refreshTokenType = "refresh"

// TokenPair is a short-lived access token plus a long-lived refresh token.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Claims are the JWT claims carried by both token kinds. Access tokens carry
// the user's role; refresh tokens carry typ=refresh and no role.
type Claims struct {
	Role      string `json:"role,omitempty"`
	TokenType string `json:"typ,omitempty"`
	jwt.RegisteredClaims
}

// Issuer mints and verifies HS256-signed token pairs.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewIssuer(secret string, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Mint creates an access/refresh pair bound to the user's id and role.
func (i *Issuer) Mint(userID uuid.UUID, role models.Role) (TokenPair, error) {
	access, err := i.signAccess(userID, role)
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := i.sign(Claims{
		TokenType: refreshTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(i.refreshTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh validates a refresh token and mints a new access token for its
// subject. The confirmation code does not need to be re-presented.
func (i *Issuer) Refresh(refreshToken string, role models.Role) (string, error) {
	claims, err := i.parse(refreshToken)
	if err != nil {
		return "", err
	}
	if claims.TokenType != refreshTokenType {
		return "", fmt.Errorf("%w: not a refresh token", models.ErrAuthenticationFailed)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return "", fmt.Errorf("%w: bad subject", models.ErrAuthenticationFailed)
	}
	return i.signAccess(userID, role)
}

// Verify validates an access token and returns its subject and role.
func (i *Issuer) Verify(accessToken string) (uuid.UUID, models.Role, error) {
	claims, err := i.parse(accessToken)
	if err != nil {
		return uuid.Nil, "", err
	}
	if claims.TokenType == refreshTokenType {
		return uuid.Nil, "", fmt.Errorf("%w: refresh token used as access token", models.ErrAuthenticationFailed)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("%w: bad subject", models.ErrAuthenticationFailed)
	}
	return userID, models.Role(claims.Role), nil
}

// Subject extracts the user id from a refresh token without minting anything.
func (i *Issuer) Subject(refreshToken string) (uuid.UUID, error) {
	claims, err := i.parse(refreshToken)
	if err != nil {
		return uuid.Nil, err
	}
	if claims.TokenType != refreshTokenType {
		return uuid.Nil, fmt.Errorf("%w: not a refresh token", models.ErrAuthenticationFailed)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", models.ErrAuthenticationFailed)
	}
	return userID, nil
}

func (i *Issuer) signAccess(userID uuid.UUID, role models.Role) (string, error) {
	return i.sign(Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(i.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
}

func (i *Issuer) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

func (i *Issuer) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrAuthenticationFailed, err)
	}
	return claims, nil
}
