package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"community-server/apperr"
	"community-server/entities"
	"community-server/logging"
	"community-server/media"
	"community-server/metrics"
	"community-server/repositories"
)

// EventPublisher fans out community events to live subscribers.
type EventPublisher interface {
	Publish(topic string, payload any)
}

type SubUseCase struct {
	SubRepo repositories.SubRepository
	Media   media.Store
	Events  EventPublisher
	Metrics *metrics.Metrics
	Log     logging.Logger

	now func() time.Time
}

func NewSubUseCase(subRepo repositories.SubRepository, store media.Store, events EventPublisher, m *metrics.Metrics, log logging.Logger) *SubUseCase {
	return &SubUseCase{
		SubRepo: subRepo,
		Media:   store,
		Events:  events,
		Metrics: m,
		Log:     log,
		now:     time.Now,
	}
}

// CreateSub creates a community owned by owner.
func (uc *SubUseCase) CreateSub(ctx context.Context, owner *entities.User, name, title, description string) (*entities.Sub, error) {
	if owner == nil {
		return nil, apperr.ErrUnauthorized
	}
	name = strings.TrimSpace(name)
	title = strings.TrimSpace(title)

	if err := apperr.Validation(entities.ValidateSub(name, title)); err != nil {
		return nil, err
	}

	exists, err := uc.SubRepo.ExistsByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("check sub name: %w", err)
	}
	nameTaken := apperr.Conflict(map[string]string{"name": "Sub exists already."})
	if exists {
		return nil, nameTaken
	}

	sub := &entities.Sub{
		Name:        name,
		Title:       title,
		Description: strings.TrimSpace(description),
		OwnerID:     owner.ID,
		Username:    owner.Username,
	}
	if err := uc.SubRepo.Create(ctx, sub); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, nameTaken
		}
		return nil, fmt.Errorf("create sub: %w", err)
	}
	return sub, nil
}

// GetSub loads a community by name, case-insensitively.
func (uc *SubUseCase) GetSub(ctx context.Context, name string) (*entities.Sub, error) {
	return uc.SubRepo.FindByName(ctx, strings.TrimSpace(name))
}

// View resolves the asset URLs of sub through the media store.
func (uc *SubUseCase) View(sub *entities.Sub) entities.SubView {
	return sub.View(uc.Media.URL)
}

// ReplaceAsset makes filename, already written to the media store, the
// live asset of the given kind on sub. The previous file is deleted only
// after the new reference is persisted. On a lost race with a concurrent
// replacement the uploaded file is removed and apperr.ErrConflict returned.
// When persisting fails the uploaded file is left in place.
func (uc *SubUseCase) ReplaceAsset(ctx context.Context, sub *entities.Sub, kindParam, filename string) (*entities.Sub, error) {
	log := uc.Log.With("sub", sub.Name, "file", filename)

	kind, ok := entities.ParseAssetKind(kindParam)
	if !ok {
		uc.discard(ctx, log, filename)
		uc.Metrics.AssetReplaced("invalid", "invalid_type")
		return nil, apperr.ErrInvalidType
	}
	log = log.With("kind", string(kind))

	old := sub.AssetRef(kind)

	updated, err := uc.SubRepo.UpdateAssetRef(ctx, sub.ID, kind, old, filename)
	if err != nil {
		log.Error(ctx, "persist asset reference failed, uploaded file left in place", "err", err)
		uc.Metrics.AssetReplaced(string(kind), "error")
		return nil, fmt.Errorf("commit asset reference: %w", err)
	}
	if !updated {
		log.Warn(ctx, "asset replaced concurrently", "expected", old)
		uc.discard(ctx, log, filename)
		uc.Metrics.AssetReplaced(string(kind), "conflict")
		return nil, apperr.Conflict(map[string]string{"type": "The " + string(kind) + " was changed by another request."})
	}

	next := *sub
	next.SetAssetRef(kind, filename)

	if old != "" {
		if err := uc.Media.Delete(context.WithoutCancel(ctx), old); err != nil {
			log.Warn(ctx, "delete previous asset failed", "previous", old, "err", err)
			uc.Metrics.CleanupFailed()
		}
	}
	uc.Metrics.AssetReplaced(string(kind), "ok")

	if uc.Events != nil {
		uc.Events.Publish(next.Name, entities.SubEvent{
			Type: entities.EventAssetUpdated,
			Sub:  next.Name,
			Kind: kind,
			URL:  uc.Media.URL(filename),
			At:   uc.now().UTC(),
		})
	}
	return &next, nil
}

// Discard removes an uploaded file that will not be referenced.
func (uc *SubUseCase) Discard(ctx context.Context, filename string) {
	uc.discard(ctx, uc.Log.With("file", filename), filename)
}

func (uc *SubUseCase) discard(ctx context.Context, log logging.Logger, filename string) {
	if err := uc.Media.Delete(context.WithoutCancel(ctx), filename); err != nil {
		log.Warn(ctx, "delete unreferenced upload failed", "err", err)
		uc.Metrics.CleanupFailed()
	}
}
