package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"promptregistry/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const UserIDKey contextKey = "userID"

// UserID returns the authenticated subject, or "" when auth is disabled.
func UserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// AuthMiddleware requires an HS256 bearer token signed with secret. An empty
// secret disables verification and passes requests through unchanged.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			if tokenString == "" {
				unauthorized(w, "No token provided")
				return
			}

			// Validate Token
			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				logger.Sugar.Warnf("Invalid token: %v", err)
				unauthorized(w, "Invalid or expired token")
				return
			}

			// The subject becomes the acting user.
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				unauthorized(w, "Could not parse token claims")
				return
			}
			userID, err := claims.GetSubject()
			if err != nil || userID == "" {
				unauthorized(w, "User ID (sub) claim is missing or invalid")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"error":"unauthorized","message":%q}`+"\n", "Unauthorized: "+message)
}
