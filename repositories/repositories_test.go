package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"community-server/apperr"
	"community-server/db"
	"community-server/entities"
)

func newMockDB(t *testing.T) (db.Database, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err)
	return &db.GormDatabase{DB: gdb}, mock
}

func TestUserPg_FindByID(t *testing.T) {
	database, mock := newMockDB(t)
	repo := NewUserPgRepository(database)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "username", "password_hash"}).
			AddRow("u1", "alice@x.com", "alice", "$2a$hash"))

	u, err := repo.FindByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "$2a$hash", u.PasswordHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserPg_NotFound(t *testing.T) {
	database, mock := newMockDB(t)
	repo := NewUserPgRepository(database)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE username = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserPg_Exists(t *testing.T) {
	database, mock := newMockDB(t)
	repo := NewUserPgRepository(database)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE email = \$1`).
		WithArgs("alice@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE username = \$1`).
		WithArgs("bob").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	ok, err := repo.ExistsByEmail(context.Background(), "alice@x.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ExistsByUsername(context.Background(), "bob")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserPg_CreateDuplicate(t *testing.T) {
	database, mock := newMockDB(t)
	repo := NewUserPgRepository(database)

	mock.ExpectExec(`INSERT INTO "users"`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.Create(context.Background(), &entities.User{Email: "a@x.com", Username: "alice", PasswordHash: "h"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserPg_CreateAssignsID(t *testing.T) {
	database, mock := newMockDB(t)
	repo := NewUserPgRepository(database)

	mock.ExpectExec(`INSERT INTO "users"`).WillReturnResult(sqlmock.NewResult(0, 1))

	u := &entities.User{Email: "a@x.com", Username: "alice", PasswordHash: "h"}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.NotEmpty(t, u.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserPg_StoreError(t *testing.T) {
	database, mock := newMockDB(t)
	repo := NewUserPgRepository(database)

	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnError(errors.New("connection reset"))

	_, err := repo.FindByID(context.Background(), "u1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorContains(t, err, "connection reset")
}

func TestSubPg_FindByNameCaseInsensitive(t *testing.T) {
	database, mock := newMockDB(t)
	repo := NewSubPgRepository(database)

	mock.ExpectQuery(`SELECT \* FROM "subs" WHERE lower\(name\) = lower\(\$1\)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "title", "owner_id", "image_urn", "banner_urn"}).
			AddRow("s1", "science", "Science", "u1", "", "old.png"))

	s, err := repo.FindByName(context.Background(), "SCIENCE")
	require.NoError(t, err)
	assert.Equal(t, "u1", s.OwnedBy())
	assert.Equal(t, "old.png", s.BannerUrn)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubPg_ExistsByName(t *testing.T) {
	database, mock := newMockDB(t)
	repo := NewSubPgRepository(database)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "subs" WHERE lower\(name\) = lower\(\$1\)`).
		WithArgs("Science").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	ok, err := repo.ExistsByName(context.Background(), "Science")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSubPg_UpdateAssetRef(t *testing.T) {
	database, mock := newMockDB(t)
	repo := NewSubPgRepository(database)

	mock.ExpectExec(`UPDATE "subs" SET "banner_urn"=\$1,"updated_at"=\$2 WHERE id = \$3 AND banner_urn = \$4`).
		WithArgs("new.png", sqlmock.AnyArg(), "s1", "old.png").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "subs" SET "image_urn"=\$1,"updated_at"=\$2 WHERE id = \$3 AND image_urn = \$4`).
		WithArgs("img.png", sqlmock.AnyArg(), "s1", "").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.UpdateAssetRef(context.Background(), "s1", entities.AssetBanner, "old.png", "new.png")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UpdateAssetRef(context.Background(), "s1", entities.AssetImage, "", "img.png")
	require.NoError(t, err)
	assert.False(t, ok, "stale previous reference must not update")

	_, err = repo.UpdateAssetRef(context.Background(), "s1", entities.AssetKind("avatar"), "", "x.png")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserMem(t *testing.T) {
	ctx := context.Background()
	repo := NewUserMemRepository()

	u := &entities.User{Email: "alice@x.com", Username: "alice", PasswordHash: "h"}
	require.NoError(t, repo.Create(ctx, u))
	require.NotEmpty(t, u.ID)

	err := repo.Create(ctx, &entities.User{Email: "alice@x.com", Username: "other"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	got, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	got.Username = "mutated"

	again, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", again.Username, "returned records are copies")

	_, err = repo.FindByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	ok, err := repo.ExistsByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.ExistsByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSubMem(t *testing.T) {
	ctx := context.Background()
	repo := NewSubMemRepository()

	s := &entities.Sub{Name: "Science", Title: "Science", OwnerID: "u1"}
	require.NoError(t, repo.Create(ctx, s))
	assert.ErrorIs(t, repo.Create(ctx, &entities.Sub{Name: "science"}), apperr.ErrConflict)

	got, err := repo.FindByName(ctx, "SCIENCE")
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)

	ok, err := repo.UpdateAssetRef(ctx, s.ID, entities.AssetBanner, "", "b1.png")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UpdateAssetRef(ctx, s.ID, entities.AssetBanner, "", "b2.png")
	require.NoError(t, err)
	assert.False(t, ok)

	got, err = repo.FindByName(ctx, "science")
	require.NoError(t, err)
	assert.Equal(t, "b1.png", got.BannerUrn)

	ok, err = repo.ExistsByName(ctx, "physics")
	require.NoError(t, err)
	assert.False(t, ok)
}
