package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-lobby/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-lobby/internal/entity"
)

// GameArchive stores snapshots of finished games.
type GameArchive interface {
	Save(ctx context.Context, game *entity.GameView) error
	GetByID(ctx context.Context, id string) (*entity.GameView, error)
}

type dbGameArchive struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGameArchive returns a redis backed archive. A zero ttl keeps snapshots forever.
func NewGameArchive(client *redis.Client, ttl time.Duration) GameArchive {
	return &dbGameArchive{
		client: client,
		ttl:    ttl,
	}
}

func gameKey(id string) string {
	return "game:" + id
}

func (that *dbGameArchive) Save(ctx context.Context, game *entity.GameView) error {
	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	if err = that.client.Set(ctx, gameKey(game.ID), gameJSON, that.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set game: %w", err)
	}

	return nil
}

func (that *dbGameArchive) GetByID(ctx context.Context, id string) (*entity.GameView, error) {
	response, err := that.client.Get(ctx, gameKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("archived game %q: %w", id, apperror.ErrGameNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	var game entity.GameView
	if err = json.Unmarshal([]byte(response), &game); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return &game, nil
}
