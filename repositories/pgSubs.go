package repositories

import (
	"context"
	"fmt"

	"community-server/db"
	"community-server/entities"
)

type subPgRepository struct {
	db db.Database
}

func NewSubPgRepository(database db.Database) SubRepository {
	return &subPgRepository{db: database}
}

func (r *subPgRepository) Create(ctx context.Context, sub *entities.Sub) error {
	return translate(r.db.GetDB().WithContext(ctx).Create(sub).Error)
}

func (r *subPgRepository) FindByName(ctx context.Context, name string) (*entities.Sub, error) {
	var sub entities.Sub
	err := r.db.GetDB().WithContext(ctx).Where("lower(name) = lower(?)", name).First(&sub).Error
	if err != nil {
		return nil, translate(err)
	}
	return &sub, nil
}

func (r *subPgRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var n int64
	err := r.db.GetDB().WithContext(ctx).Model(&entities.Sub{}).
		Where("lower(name) = lower(?)", name).Count(&n).Error
	if err != nil {
		return false, translate(err)
	}
	return n > 0, nil
}

func (r *subPgRepository) UpdateAssetRef(ctx context.Context, id string, kind entities.AssetKind, prev, next string) (bool, error) {
	col := kind.Column()
	if col == "" {
		return false, fmt.Errorf("store: unknown asset kind %q", kind)
	}
	res := r.db.GetDB().WithContext(ctx).Model(&entities.Sub{}).
		Where("id = ? AND "+col+" = ?", id, prev).
		Update(col, next)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}
