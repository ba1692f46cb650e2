// Package reaper evicts finished and stale games on a timer. It talks
// to the registry only through its public operations, so a reap goes
// through the same per-id exclusion as a move and can never race one.
package reaper

import (
	"context"
	"log/slog"
	"time"

	"github.com/playgrid/tictactoe-arena/internal/entity"
)

type gameRegistry interface {
	List() []*entity.Game
	RemoveIf(id string, pred func(game *entity.Game) bool) (*entity.Game, bool)
}

type broadcaster interface {
	CloseChannel(channel string)
}

// gameArchive records evicted terminal games. Optional.
type gameArchive interface {
	Record(ctx context.Context, game *entity.Game) error
}

type Reaper struct {
	logger   *slog.Logger
	registry gameRegistry
	hub      broadcaster
	archive  gameArchive

	interval   time.Duration
	staleAfter time.Duration
	now        func() time.Time
}

func New(logger *slog.Logger, registry gameRegistry, hub broadcaster, archive gameArchive, interval, staleAfter time.Duration) *Reaper {
	return &Reaper{
		logger:     logger.With("component", "reaper"),
		registry:   registry,
		hub:        hub,
		archive:    archive,
		interval:   interval,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// Run - sweeps on a fixed interval until the context is canceled.
func (that *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(that.interval)
	defer ticker.Stop()

	that.logger.Info("reaper started", "interval", that.interval, "staleAfter", that.staleAfter)

	for {
		select {
		case <-ctx.Done():
			that.logger.Info("reaper stopped")
			return
		case <-ticker.C:
			that.SweepOnce(ctx)
		}
	}
}

// SweepOnce - runs a single sweep over every registered game. A game
// is evicted when it is terminal or older than the stale threshold;
// its broadcast channel is torn down afterwards. A failure on one game
// never halts the sweep of the rest.
func (that *Reaper) SweepOnce(ctx context.Context) {
	for _, game := range that.registry.List() {
		removed, ok := that.registry.RemoveIf(game.ID, that.shouldReap)
		if !ok {
			continue
		}

		that.logger.Info("game reaped",
			"gameID", removed.ID,
			"finished", removed.IsFinished(),
			"age", that.now().Sub(removed.CreatedAt).Round(time.Second),
		)

		that.hub.CloseChannel(removed.ID)

		if that.archive != nil && removed.IsFinished() {
			if err := that.archive.Record(ctx, removed); err != nil {
				that.logger.Error("failed to archive game", "gameID", removed.ID, "error", err)
			}
		}
	}
}

// shouldReap is re-evaluated under the game's own lock, so a move that
// commits between List and RemoveIf is taken into account.
func (that *Reaper) shouldReap(game *entity.Game) bool {
	return game.IsFinished() || that.now().Sub(game.CreatedAt) > that.staleAfter
}
