package storage

import (
	"context"

	"github.com/mcoot/skyrace/internal/model"
)

// PlayerStore owns the player records of the lobby, keyed by id.
// Callers serialize access to the records they get back.
type PlayerStore interface {
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	DeletePlayer(ctx context.Context, id model.PlayerID) error
	ListPlayers(ctx context.Context) ([]*model.Player, error)
	CountPlayers(ctx context.Context) (int, error)
}
