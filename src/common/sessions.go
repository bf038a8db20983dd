package common

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"

	"whitepalace/src/config"
	"whitepalace/src/lib"
	"whitepalace/src/types"

	"github.com/redis/go-redis/v9"
)

// Sessions live in redis, not process memory, so every server process sees
// the same state and expiry happens independently of any one process. The
// admin and customer namespaces are disjoint: a token issued for one kind
// never validates for the other.

func sessionKey(kind types.PrincipalKind, token string) string {
	return fmt.Sprintf("session:%s:%s", kind, token)
}

func generateSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// IssueToken stores the principal under a fresh opaque token with the
// configured TTL and returns the token.
func IssueToken(ctx context.Context, principal types.Principal) (string, error) {
	token, err := generateSessionToken()
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(&principal)
	if err != nil {
		return "", err
	}
	rdb := lib.GetRedisClient()
	if err := rdb.Set(ctx, sessionKey(principal.Kind, token), raw, config.SessionTTL()).Err(); err != nil {
		log.Printf("[sessions] Error storing session: %s\n", err.Error())
		return "", err
	}
	return token, nil
}

// ValidateToken resolves a bearer token of the given kind to its
// principal. Unknown and expired tokens are indistinguishable: redis has
// already dropped expired keys, so both fail Unauthenticated.
func ValidateToken(ctx context.Context, kind types.PrincipalKind, token string) (*types.Principal, error) {
	if token == "" {
		return nil, types.NewUnauthenticatedError("missing bearer token")
	}
	rdb := lib.GetRedisClient()
	raw, err := rdb.Get(ctx, sessionKey(kind, token)).Result()
	if err == redis.Nil {
		return nil, types.NewUnauthenticatedError("invalid or expired token")
	} else if err != nil {
		log.Printf("[sessions] Error reading session: %s\n", err.Error())
		return nil, err
	}
	var principal types.Principal
	if err := json.Unmarshal([]byte(raw), &principal); err != nil {
		return nil, err
	}
	if principal.Kind != kind {
		return nil, types.NewUnauthenticatedError("invalid or expired token")
	}
	return &principal, nil
}

// RevokeToken logs a token out. Revoking an unknown or already-revoked
// token is not an error.
func RevokeToken(ctx context.Context, kind types.PrincipalKind, token string) error {
	rdb := lib.GetRedisClient()
	return rdb.Del(ctx, sessionKey(kind, token)).Err()
}
