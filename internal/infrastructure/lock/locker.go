package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const keyPrefix = "copilot:lock:"

var errBusy = errors.New("meeting lock busy")

// KeyStore is the atomic primitive the locker needs. Both the Redis and the
// in-memory cache stores provide it.
type KeyStore interface {
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	DeleteIfEquals(ctx context.Context, key, value string) (bool, error)
}

// KeyLocker hands out one execution slot per meeting. Each holder gets a random
// token so an expired holder cannot release a slot someone else now owns.
type KeyLocker struct {
	store  KeyStore
	ttl    time.Duration
	logger *zap.Logger

	// poll bounds the retry interval while Lock waits
	pollMin time.Duration
	pollMax time.Duration
}

func NewKeyLocker(store KeyStore, ttl time.Duration, logger *zap.Logger) *KeyLocker {
	return &KeyLocker{
		store:   store,
		ttl:     ttl,
		logger:  logger,
		pollMin: 100 * time.Millisecond,
		pollMax: 2 * time.Second,
	}
}

// TryLock takes the slot if it is free
func (l *KeyLocker) TryLock(ctx context.Context, meetingID uuid.UUID) (func(), bool, error) {
	key := keyPrefix + meetingID.String()
	token := uuid.NewString()

	ok, err := l.store.SetNX(ctx, key, token, l.ttl)
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	return l.releaser(key, token), true, nil
}

// Lock waits for the slot, polling with exponential backoff until ctx is done
func (l *KeyLocker) Lock(ctx context.Context, meetingID uuid.UUID) (func(), error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = l.pollMin
	bo.MaxInterval = l.pollMax
	bo.MaxElapsedTime = 0

	var unlock func()
	operation := func() error {
		release, ok, err := l.TryLock(ctx, meetingID)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return errBusy
		}
		unlock = release
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return unlock, nil
}

func (l *KeyLocker) releaser(key, token string) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		released, err := l.store.DeleteIfEquals(ctx, key, token)
		if l.logger == nil {
			return
		}
		if err != nil {
			l.logger.Warn("⚠️ Failed to release meeting lock",
				zap.String("key", key),
				zap.Error(err),
			)
			return
		}
		if !released {
			l.logger.Warn("⚠️ Meeting lock expired before release",
				zap.String("key", key),
			)
		}
	}
}
