package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/playgrid/tictactoe-arena/internal/entity"
	"github.com/redis/go-redis/v9"
)

var ErrArchivedGameNotFound = errors.New("archived game not found")

// GameArchive records finished games evicted by the reaper. It is an
// ops-facing trail only: nothing here is ever loaded back into the
// registry, so live state never depends on redis.
type GameArchive interface {
	Record(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
}

type gameArchive struct {
	client *redis.Client
	ttl    time.Duration
}

func NewGameArchive(client *redis.Client, ttl time.Duration) GameArchive {
	return &gameArchive{
		client: client,
		ttl:    ttl,
	}
}

func (that *gameArchive) Record(ctx context.Context, game *entity.Game) error {
	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	archiveKey := "archive:" + game.ID
	if err = that.client.Set(ctx, archiveKey, gameJSON, that.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set archived game: %w", err)
	}

	return nil
}

func (that *gameArchive) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	archiveKey := "archive:" + id

	response, err := that.client.Get(ctx, archiveKey).Result()

	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: id %s", ErrArchivedGameNotFound, id)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get archived game: %w", err)
	}

	var game entity.Game
	if err = json.Unmarshal([]byte(response), &game); err != nil {
		return nil, fmt.Errorf("failed to unmarshal archived game: %w", err)
	}

	return &game, nil
}
