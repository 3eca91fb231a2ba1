package repositories

import (
	"context"

	"community-server/entities"
)

// Lookups return apperr.ErrNotFound for missing rows. Create returns
// apperr.ErrConflict when a unique index rejects the row.

type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	FindByID(ctx context.Context, id string) (*entities.User, error)
	FindByUsername(ctx context.Context, username string) (*entities.User, error)
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

type SubRepository interface {
	Create(ctx context.Context, sub *entities.Sub) error
	// FindByName and ExistsByName compare names case-insensitively.
	FindByName(ctx context.Context, name string) (*entities.Sub, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	// UpdateAssetRef sets the reference for kind to next only while it
	// still equals prev. It reports whether the row was updated.
	UpdateAssetRef(ctx context.Context, id string, kind entities.AssetKind, prev, next string) (bool, error)
}
