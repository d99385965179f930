package utils

import (
	"errors"

	"slotpass/config"

	"github.com/golang-jwt/jwt"
)

// Session tokens carry the resolved identity {userId, role}. Account
// provisioning and sign-in live outside this service; tokens issued there are
// trusted here after signature validation.

// ValidateToken parses and validates a token string.
func ValidateToken(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})
}

// ExtractSessionFromToken returns the subject and role claims from a valid
// session token.
func ExtractSessionFromToken(tokenString string) (userID, role string, err error) {
	token, err := ValidateToken(tokenString)
	if err != nil {
		return "", "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", errors.New("invalid token claims")
	}
	userID, _ = claims["sub"].(string)
	role, _ = claims["role"].(string)
	if userID == "" {
		return "", "", errors.New("token missing subject")
	}
	return userID, role, nil
}
