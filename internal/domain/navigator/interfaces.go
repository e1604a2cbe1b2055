package navigator

import (
	"context"

	"github.com/rpggio/datapad/internal/domain/character"
)

// Source provides the records the navigator walks over.
type Source interface {
	Fetch(ctx context.Context, id int) (*character.Character, error)
	FetchAll(ctx context.Context) ([]character.Character, error)
}
