package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"community-server/apperr"
	"community-server/auth"
	"community-server/entities"
	"community-server/repositories"
)

type UserUseCase struct {
	UserRepo repositories.UserRepository
	Hasher   auth.Hasher

	// compared against when the user does not exist so both login
	// failures cost one bcrypt comparison
	dummyHash string
}

func NewUserUseCase(userRepo repositories.UserRepository, hasher auth.Hasher) (*UserUseCase, error) {
	dummy, err := hasher.Hash("dummy-password-for-timing")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &UserUseCase{UserRepo: userRepo, Hasher: hasher, dummyHash: dummy}, nil
}

// Register validates the input, rejects taken emails and usernames, hashes
// the password and persists the new user.
func (uc *UserUseCase) Register(ctx context.Context, email, username, password string) (*entities.User, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)

	if err := apperr.Validation(entities.ValidateRegistration(email, username, password)); err != nil {
		return nil, err
	}

	taken, err := uc.taken(ctx, email, username)
	if err != nil {
		return nil, err
	}
	if len(taken) > 0 {
		return nil, apperr.Conflict(taken)
	}

	hash, err := uc.Hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &entities.User{Email: email, Username: username, PasswordHash: hash}
	if err := uc.UserRepo.Create(ctx, user); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			// a concurrent registration won the unique index
			if taken, terr := uc.taken(ctx, email, username); terr == nil && len(taken) > 0 {
				return nil, apperr.Conflict(taken)
			}
			return nil, apperr.Conflict(map[string]string{"username": "Username is already taken."})
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (uc *UserUseCase) taken(ctx context.Context, email, username string) (map[string]string, error) {
	fields := map[string]string{}

	ok, err := uc.UserRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if ok {
		fields["email"] = "Email is already taken."
	}

	ok, err = uc.UserRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if ok {
		fields["username"] = "Username is already taken."
	}
	return fields, nil
}

// VerifyCredentials returns the user whose password matches. The
// identifier is a username, or an email when it contains '@'. A missing
// user yields apperr.ErrNotFound, a wrong password
// apperr.ErrInvalidCredentials.
func (uc *UserUseCase) VerifyCredentials(ctx context.Context, identifier, password string) (*entities.User, error) {
	identifier = strings.TrimSpace(identifier)

	fields := map[string]string{}
	if identifier == "" {
		fields["username"] = "Username must not be empty."
	}
	if password == "" {
		fields["password"] = "Password must not be empty."
	}
	if err := apperr.Validation(fields); err != nil {
		return nil, err
	}

	user, err := uc.UserRepo.FindByUsername(ctx, identifier)
	if errors.Is(err, apperr.ErrNotFound) && strings.Contains(identifier, "@") {
		user, err = uc.UserRepo.FindByEmail(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			_ = uc.Hasher.Compare(uc.dummyHash, password)
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := uc.Hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("compare password: %w", err)
	}
	return user, nil
}

// GetUser loads a user by id.
func (uc *UserUseCase) GetUser(ctx context.Context, id string) (*entities.User, error) {
	return uc.UserRepo.FindByID(ctx, id)
}
