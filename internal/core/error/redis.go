package errx

import (
	"errors"
	"net/http"

	"github.com/redis/go-redis/v9"
)

// WrapRedis maps Redis errors to AppError with appropriate status codes.
func WrapRedis(err error) *AppError {
	if err == nil {
		return nil
	}

	if errors.Is(err, redis.Nil) {
		return New(err, http.StatusNotFound, RedisNotFoundMessage)
	}

	return New(err, http.StatusBadGateway, RedisErrorMessage)
}

// WrapPersistence maps repository errors to AppError carrying the
// ErrPersistence sentinel so callers can detect degraded mode with errors.Is.
func WrapPersistence(err error) *AppError {
	if err == nil {
		return nil
	}
	return New(errors.Join(ErrPersistence, err), http.StatusBadGateway, PersistenceErrorMessage)
}
