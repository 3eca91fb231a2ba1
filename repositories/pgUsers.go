package repositories

import (
	"context"

	"community-server/db"
	"community-server/entities"
)

type userPgRepository struct {
	db db.Database
}

func NewUserPgRepository(database db.Database) UserRepository {
	return &userPgRepository{db: database}
}

func (r *userPgRepository) Create(ctx context.Context, user *entities.User) error {
	return translate(r.db.GetDB().WithContext(ctx).Create(user).Error)
}

func (r *userPgRepository) FindByID(ctx context.Context, id string) (*entities.User, error) {
	return r.findBy(ctx, "id = ?", id)
}

func (r *userPgRepository) FindByUsername(ctx context.Context, username string) (*entities.User, error) {
	return r.findBy(ctx, "username = ?", username)
}

func (r *userPgRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.findBy(ctx, "email = ?", email)
}

func (r *userPgRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", email)
}

func (r *userPgRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username = ?", username)
}

func (r *userPgRepository) findBy(ctx context.Context, cond string, arg string) (*entities.User, error) {
	var user entities.User
	err := r.db.GetDB().WithContext(ctx).Where(cond, arg).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userPgRepository) exists(ctx context.Context, cond string, arg string) (bool, error) {
	var n int64
	err := r.db.GetDB().WithContext(ctx).Model(&entities.User{}).Where(cond, arg).Count(&n).Error
	if err != nil {
		return false, translate(err)
	}
	return n > 0, nil
}
