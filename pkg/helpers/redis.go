package helpers

import (
	"github.com/redis/go-redis/v9"
)

// NewRedisClient initializes a redis client
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// SessionKey is the Redis hash holding the cached session for an account.
func SessionKey(accountID string) string {
	return "account:session:" + accountID
}

// VerifiedKey caches the email-verified flag once verification succeeds.
func VerifiedKey(accountID string) string {
	return "account:verified:" + accountID
}
