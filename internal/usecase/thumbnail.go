package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/lexand-dev/vid-skool/internal/core"
)

// RestoreThumbnail replaces the stored thumbnail with the provider's still for
// the asset's playback ref. Replaying it after any failure converges.
func (s *AssetService) RestoreThumbnail(ctx context.Context, id uuid.UUID, ownerID string) (*core.Asset, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}

	asset, err := s.repo.GetOwnedAsset(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if asset.ProviderPlaybackRef == "" {
		return nil, fmt.Errorf("%w: asset has no playback ref yet", core.ErrPrecondition)
	}

	source := s.gateway.ThumbnailURL(asset.ProviderPlaybackRef)
	return s.replaceThumbnail(ctx, asset, func(ctx context.Context) (*core.StoredObject, error) {
		return s.store.UploadFromURL(ctx, source)
	})
}

// UploadThumbnail replaces the stored thumbnail with caller-supplied bytes.
func (s *AssetService) UploadThumbnail(ctx context.Context, id uuid.UUID, ownerID string, upload core.ObjectUpload) (*core.Asset, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if err := validateThumbnailUpload(upload); err != nil {
		return nil, err
	}

	asset, err := s.repo.GetOwnedAsset(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	return s.replaceThumbnail(ctx, asset, func(ctx context.Context) (*core.StoredObject, error) {
		return s.store.Upload(ctx, upload)
	})
}

// replaceThumbnail deletes the current object, produces a new one and moves the
// pointer with a revision compare-and-set. The row only ever points at the old
// key, at nothing, or at the object this call uploaded.
func (s *AssetService) replaceThumbnail(ctx context.Context, asset *core.Asset, produce func(context.Context) (*core.StoredObject, error)) (*core.Asset, error) {
	log := s.logger.With().
		Str("asset_id", asset.ID.String()).
		Int64("revision", asset.ThumbnailRevision).
		Logger()

	if asset.ThumbnailKey != "" {
		if err := s.store.Delete(ctx, asset.ThumbnailKey); err != nil {
			return nil, fmt.Errorf("%w: delete thumbnail %s: %w", core.ErrUpstream, asset.ThumbnailKey, err)
		}
	}

	obj, err := produce(ctx)
	if err != nil {
		if asset.ThumbnailKey != "" {
			s.clearThumbnail(ctx, asset)
		}
		return nil, fmt.Errorf("%w: upload thumbnail: %w", core.ErrUpstream, err)
	}

	now := s.now().UTC()
	swapped, err := s.repo.SwapThumbnail(ctx, core.ThumbnailSwap{
		AssetID:          asset.ID,
		OwnerID:          asset.OwnerID,
		ExpectedRevision: asset.ThumbnailRevision,
		Key:              obj.Key,
		URL:              obj.URL,
	}, now)
	if err != nil {
		s.discardObject(ctx, obj.Key)
		return nil, err
	}
	if !swapped {
		s.discardObject(ctx, obj.Key)
		if _, err := s.repo.GetOwnedAsset(ctx, asset.ID, asset.OwnerID); err != nil {
			return nil, err
		}
		log.Info().Msg("thumbnail replaced concurrently")
		return nil, fmt.Errorf("%w: thumbnail replaced concurrently", core.ErrConflict)
	}

	updated := *asset
	updated.ThumbnailKey = obj.Key
	updated.ThumbnailURL = obj.URL
	updated.ThumbnailRevision = asset.ThumbnailRevision + 1
	updated.UpdatedAt = now

	log.Info().Str("thumbnail_key", obj.Key).Msg("thumbnail replaced")
	return &updated, nil
}

// clearThumbnail drops a pointer whose object is already deleted, unless a
// concurrent writer has moved it.
func (s *AssetService) clearThumbnail(ctx context.Context, asset *core.Asset) {
	_, err := s.repo.SwapThumbnail(ctx, core.ThumbnailSwap{
		AssetID:          asset.ID,
		OwnerID:          asset.OwnerID,
		ExpectedRevision: asset.ThumbnailRevision,
	}, s.now().UTC())
	if err != nil {
		s.logger.Warn().Err(err).
			Str("asset_id", asset.ID.String()).
			Str("thumbnail_key", asset.ThumbnailKey).
			Msg("failed to clear dangling thumbnail pointer")
	}
}

func (s *AssetService) discardObject(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("thumbnail_key", key).Msg("orphaned thumbnail object")
	}
}

func validateThumbnailUpload(upload core.ObjectUpload) error {
	var errs []error
	if upload.Body == nil || upload.Size <= 0 {
		errs = append(errs, errors.New("thumbnail is empty"))
	}
	if upload.Size > maxThumbnailBytes {
		errs = append(errs, fmt.Errorf("thumbnail exceeds %d bytes", maxThumbnailBytes))
	}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(upload.ContentType)), "image/") {
		errs = append(errs, fmt.Errorf("content type %q is not an image", upload.ContentType))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", core.ErrValidation, errors.Join(errs...))
	}
	return nil
}
