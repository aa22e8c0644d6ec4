package identity

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// UserFromToken extracts the user identity from an access token's claims
// without verifying the signature. The platform is the verifier; this is
// only used to label cached sessions and as a fallback when the UserInfo
// endpoint is unavailable.
func UserFromToken(rawToken string) (User, error) {
	claims, err := unverifiedClaims(rawToken)
	if err != nil {
		return User{}, errors.Wrap(err, "[UserFromToken] parse")
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if sub == "" && email == "" {
		return User{}, errors.New("[UserFromToken] token carries no identity claims")
	}

	return User{ID: sub, Email: email}, nil
}

// TokenExpiry returns the exp claim of a token without verification.
// Used to flag cached sessions that are likely already stale.
func TokenExpiry(rawToken string) (time.Time, error) {
	claims, err := unverifiedClaims(rawToken)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "[TokenExpiry] parse")
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return time.Time{}, errors.New("[TokenExpiry] no exp claim")
	}
	return time.Unix(int64(exp), 0), nil
}

func unverifiedClaims(rawToken string) (jwtlib.MapClaims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, errors.New("empty token")
	}

	token, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, errors.New("error extracting claims")
	}
	return claims, nil
}
