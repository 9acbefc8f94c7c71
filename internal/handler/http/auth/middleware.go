package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"inkwell/internal/handler/http/respond"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey string

const ctxUser ctxKey = "user"

// Authz gates every non-public endpoint behind a JWT from the Authorization
// header, then checks the role permission table for the method and path.
//
// GET and POST are gated alike so the compose form (GET /compose) never
// leaks draft prefill data to unauthenticated readers.
func Authz(next http.Handler) http.Handler {
	secret := []byte(os.Getenv("JWT_SECRET"))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 読者向けの公開面はトークン不要
		if IsPublicEndpoint(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		user, role, err := validateJWT(r.Header.Get("Authorization"), secret)
		if err != nil {
			respond.SafeError(w, http.StatusUnauthorized, fmt.Errorf("unauthorized: %w", err))
			return
		}

		checkStart := time.Now()
		allowed := checkRolePermission(role, r.Method, r.URL.Path)
		RecordAuthzCheckDuration(time.Since(checkStart).Seconds())
		if !allowed {
			RecordForbiddenAttempt(role, r.Method)
			respond.SafeError(w, http.StatusForbidden, errors.New("forbidden"))
			return
		}

		ctx := context.WithValue(r.Context(), ctxUser, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// validateJWT parses the Authorization header and returns the subject and
// role carried in the token. Only HS256 is accepted; a token signed with
// any other algorithm is rejected before signature verification.
func validateJWT(authz string, secret []byte) (string, string, error) {
	tokenString, hasPrefix := strings.CutPrefix(authz, "Bearer ")
	if !hasPrefix {
		return "", "", errors.New("missing bearer token")
	}

	tok, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || !tok.Valid {
		return "", "", errors.New("invalid token")
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", errors.New("invalid claims")
	}
	if exp, ok := claims["exp"].(float64); !ok || int64(exp) < time.Now().Unix() {
		return "", "", errors.New("token expired")
	}

	sub, err := stringClaim(claims, "sub")
	if err != nil {
		return "", "", err
	}
	role, err := stringClaim(claims, "role")
	if err != nil {
		return "", "", err
	}
	return sub, role, nil
}

func stringClaim(claims jwt.MapClaims, key string) (string, error) {
	value, ok := claims[key].(string)
	if !ok {
		return "", fmt.Errorf("invalid %s claim", key)
	}
	return value, nil
}
