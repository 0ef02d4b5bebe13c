package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	TokenTypeAccess = "access"
	TokenTypeStream = "stream"

	streamTokenTTL = 5 * time.Minute
)

var (
	ErrInvalidToken  = errors.New("invalid or expired token")
	ErrAdminRequired = errors.New("admin privilege required")
)

// Claims is the identity carried by an access token
type Claims struct {
	UserID     string
	EmployeeID string
	IsAdmin    bool
	Type       string
}

type Service interface {
	GenerateAccessToken(userID string, employeeID *string, isAdmin bool) (token string, expiresAt int64, err error)

	// GenerateStreamToken issues a short-lived token for event stream connections,
	// which cannot send an Authorization header from a browser
	GenerateStreamToken(claims Claims) (token string, expiresIn int, err error)
	ValidateStreamToken(tokenString string) (Claims, error)

	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpiration time.Duration
	tokenAuth             *jwtauth.JWTAuth
}

func NewJWTService(secretKey string, accessTokenExpiration time.Duration) Service {
	if accessTokenExpiration <= 0 {
		accessTokenExpiration = time.Hour
	}
	return &JWTService{
		accessTokenExpiration: accessTokenExpiration,
		tokenAuth:             jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func (j *JWTService) GenerateAccessToken(userID string, employeeID *string, isAdmin bool) (token string, expiresAt int64, err error) {
	expiresAt = time.Now().Add(j.accessTokenExpiration).Unix()

	claims := map[string]interface{}{
		"user_id":  userID,
		"is_admin": isAdmin,
		"type":     TokenTypeAccess,
		"exp":      expiresAt,
	}
	if employeeID != nil {
		claims["employee_id"] = *employeeID
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

func (j *JWTService) GenerateStreamToken(c Claims) (token string, expiresIn int, err error) {
	claims := map[string]interface{}{
		"user_id":  c.UserID,
		"is_admin": c.IsAdmin,
		"type":     TokenTypeStream,
		"exp":      time.Now().Add(streamTokenTTL).Unix(),
	}
	if c.EmployeeID != "" {
		claims["employee_id"] = c.EmployeeID
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	if err != nil {
		return "", 0, err
	}
	return tokenString, int(streamTokenTTL.Seconds()), nil
}

func (j *JWTService) ValidateStreamToken(tokenString string) (Claims, error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	claims, err := token.AsMap(context.Background())
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	c := ClaimsFromMap(claims)
	if c.Type != TokenTypeStream || c.UserID == "" {
		return Claims{}, ErrInvalidToken
	}
	return c, nil
}

// ClaimsFromMap reads the identity claims from a decoded token
func ClaimsFromMap(m map[string]interface{}) Claims {
	var c Claims
	c.UserID, _ = m["user_id"].(string)
	c.EmployeeID, _ = m["employee_id"].(string)
	c.IsAdmin, _ = m["is_admin"].(bool)
	c.Type, _ = m["type"].(string)
	return c
}
