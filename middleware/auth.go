package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"shopora/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Key type for context
type contextKey string

const UserContextKey = contextKey("user")

// RevocationStore reports whether a token id was revoked by logout.
type RevocationStore interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type mongoRevocations struct {
	coll *mongo.Collection
}

func (s *mongoRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	count, err := s.coll.CountDocuments(ctx, bson.M{"token_id": tokenID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Auth verifies bearer tokens and attaches the claims to the request
// context. Tokens blacklisted by logout are rejected even before their
// natural expiry. A failed revocation lookup rejects the request: a token
// that can not be checked against the blacklist is never admitted.
type Auth struct {
	Tokens      *utils.TokenService
	Revocations RevocationStore
}

func NewAuth(tokens *utils.TokenService, client *mongo.Client, database string) *Auth {
	return &Auth{
		Tokens:      tokens,
		Revocations: &mongoRevocations{coll: client.Database(database).Collection("blacklisted_tokens")},
	}
}

// Middleware is the authentication gate for protected routes.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			utils.WriteError(w, utils.Unauthorized("Authorization header missing"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.WriteError(w, utils.Unauthorized("Invalid Authorization header format"))
			return
		}

		claims, err := a.Tokens.Parse(parts[1])
		if err != nil {
			utils.WriteError(w, utils.Unauthorized("Invalid token"))
			return
		}

		if a.Revocations != nil && claims.Id != "" {
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			revoked, err := a.Revocations.IsRevoked(ctx, claims.Id)
			cancel()
			if err != nil {
				log.Printf("token revocation lookup failed: %v", err)
				utils.WriteError(w, utils.Unauthorized("Unable to verify token"))
				return
			}
			if revoked {
				utils.WriteError(w, utils.Unauthorized("Token has been revoked"))
				return
			}
		}

		ctx := context.WithValue(r.Context(), UserContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminOnly ensures that the user has admin privileges.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(UserContextKey).(*utils.Claims)
		if !ok || claims.Role != "admin" {
			utils.WriteError(w, utils.Forbidden("Admins only"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClaimsFrom extracts the authenticated claims from a request context.
func ClaimsFrom(r *http.Request) (*utils.Claims, bool) {
	claims, ok := r.Context().Value(UserContextKey).(*utils.Claims)
	return claims, ok
}
