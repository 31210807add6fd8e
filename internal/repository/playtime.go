package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-lobby/internal/apperror"
)

// PlayTimeRepository accumulates the time users spent connected across logouts.
type PlayTimeRepository interface {
	Add(ctx context.Context, userID string, duration time.Duration) error
	Get(ctx context.Context, userID string) (time.Duration, error)
}

type dbPlayTime struct {
	client *redis.Client
}

func NewPlayTimeRepository(client *redis.Client) PlayTimeRepository {
	return &dbPlayTime{
		client: client,
	}
}

func playTimeKey(userID string) string {
	return "playtime:" + userID
}

func (that *dbPlayTime) Add(ctx context.Context, userID string, duration time.Duration) error {
	err := that.client.IncrBy(ctx, playTimeKey(userID), duration.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("failed to add play time: %w", err)
	}

	return nil
}

func (that *dbPlayTime) Get(ctx context.Context, userID string) (time.Duration, error) {
	millis, err := that.client.Get(ctx, playTimeKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("play time %q: %w", userID, apperror.ErrUserNotFound)
	}

	if err != nil {
		return 0, fmt.Errorf("failed to get play time: %w", err)
	}

	return time.Duration(millis) * time.Millisecond, nil
}
