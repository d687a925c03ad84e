package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lexand-dev/vid-skool/internal/core"
)

const (
	maxTitleLength       = 100
	maxDescriptionLength = 5000
	maxThumbnailBytes    = 4 << 20
)

// AssetServiceConfig carries the upload settings forwarded to the provider.
type AssetServiceConfig struct {
	CORSOrigin     string
	PublicPlayback bool
}

// AssetService coordinates the owner-facing commands, delegating vendor
// specifics to the gateway, object store and dispatcher and persistence to the
// repository.
type AssetService struct {
	repo       core.AssetRepository
	gateway    core.ProviderGateway
	dispatcher core.EnrichmentDispatcher
	store      core.ObjectStore
	logger     zerolog.Logger
	cfg        AssetServiceConfig
	now        func() time.Time
}

// NewAssetService constructs an asset service from its collaborators.
func NewAssetService(
	repo core.AssetRepository,
	gateway core.ProviderGateway,
	dispatcher core.EnrichmentDispatcher,
	store core.ObjectStore,
	logger zerolog.Logger,
	cfg AssetServiceConfig,
) *AssetService {
	return &AssetService{
		repo:       repo,
		gateway:    gateway,
		dispatcher: dispatcher,
		store:      store,
		logger:     logger.With().Str("component", "asset_service").Logger(),
		cfg:        cfg,
		now:        time.Now,
	}
}

// WithClock allows tests to override the clock used by the service.
func (s *AssetService) WithClock(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

var _ core.AssetService = (*AssetService)(nil)

// CreateAsset reserves an upload slot at the provider and records the asset.
// Nothing is persisted when the provider call fails.
func (s *AssetService) CreateAsset(ctx context.Context, ownerID string) (*core.CreateAssetResult, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}

	upload, err := s.gateway.CreateUpload(ctx, ownerID, core.UploadOptions{
		CORSOrigin:     s.cfg.CORSOrigin,
		PublicPlayback: s.cfg.PublicPlayback,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create upload: %w", core.ErrUpstream, err)
	}
	if upload == nil || strings.TrimSpace(upload.JobID) == "" {
		return nil, fmt.Errorf("%w: create upload: provider returned no upload ref", core.ErrUpstream)
	}

	now := s.now().UTC()
	title := core.DefaultAssetTitle
	asset := core.Asset{
		ID:                uuid.New(),
		OwnerID:           ownerID,
		Title:             &title,
		Visibility:        core.VisibilityPrivate,
		ProcessingStatus:  core.ProcessingStatusWaiting,
		CaptionStatus:     core.CaptionStatusNone,
		ProviderUploadRef: upload.JobID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.CreateAsset(ctx, asset); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("asset_id", asset.ID.String()).
		Str("upload_ref", asset.ProviderUploadRef).
		Msg("asset created")

	return &core.CreateAssetResult{Asset: asset, Target: upload.Target}, nil
}

// GetAsset returns an owned asset.
func (s *AssetService) GetAsset(ctx context.Context, id uuid.UUID, ownerID string) (*core.Asset, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	return s.repo.GetOwnedAsset(ctx, id, ownerID)
}

// ListAssets pages through an owner's assets, newest first.
func (s *AssetService) ListAssets(ctx context.Context, filter core.AssetListFilter) ([]core.Asset, string, error) {
	if err := requireOwner(filter.OwnerID); err != nil {
		return nil, "", err
	}
	if filter.PageSize < 0 {
		return nil, "", fmt.Errorf("%w: page size must be positive", core.ErrValidation)
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}
	return s.repo.ListOwnedAssets(ctx, filter)
}

// UpdateAsset applies the editable metadata in a single scoped write.
func (s *AssetService) UpdateAsset(ctx context.Context, id uuid.UUID, ownerID string, patch core.AssetPatch) (*core.Asset, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return s.repo.GetOwnedAsset(ctx, id, ownerID)
	}
	return s.repo.UpdateOwnedAsset(ctx, id, ownerID, patch, s.now().UTC())
}

// RemoveAsset deletes the owned row, then drops the stored thumbnail. A failed
// object delete leaves an orphan for the sweep and does not fail the call.
func (s *AssetService) RemoveAsset(ctx context.Context, id uuid.UUID, ownerID string) (*core.Asset, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}

	removed, err := s.repo.DeleteOwnedAsset(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if removed.ThumbnailKey != "" {
		if err := s.store.Delete(ctx, removed.ThumbnailKey); err != nil {
			s.logger.Warn().Err(err).
				Str("asset_id", removed.ID.String()).
				Str("thumbnail_key", removed.ThumbnailKey).
				Msg("thumbnail delete failed after asset removal")
		}
	}

	s.logger.Info().Str("asset_id", removed.ID.String()).Msg("asset removed")
	return removed, nil
}

// RevalidateAsset asks the provider to reprocess an errored asset and moves it
// back to waiting.
func (s *AssetService) RevalidateAsset(ctx context.Context, id uuid.UUID, ownerID string) (*core.Asset, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}

	asset, err := s.repo.GetOwnedAsset(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if asset.ProcessingStatus != core.ProcessingStatusErrored {
		return nil, fmt.Errorf("%w: asset is %s, only errored assets can be revalidated", core.ErrPrecondition, asset.ProcessingStatus)
	}
	if asset.ProviderAssetRef == "" {
		return nil, fmt.Errorf("%w: provider has not assigned an asset yet", core.ErrPrecondition)
	}

	if err := s.gateway.RequestReprocess(ctx, asset.ProviderAssetRef); err != nil {
		return nil, fmt.Errorf("%w: request reprocess: %w", core.ErrUpstream, err)
	}

	expected := asset.Processing()
	next := expected
	next.Status = core.ProcessingStatusWaiting
	ok, err := s.repo.SwapProcessing(ctx, asset.ProviderUploadRef, expected, next, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if !ok {
		// A callback landed between the read and the write and wins.
		s.logger.Info().Str("asset_id", asset.ID.String()).Msg("revalidate superseded by concurrent callback")
	}
	return s.repo.GetOwnedAsset(ctx, id, ownerID)
}

// TriggerEnrichment hands a job to the dispatcher and returns immediately.
func (s *AssetService) TriggerEnrichment(ctx context.Context, id uuid.UUID, ownerID string, kind core.EnrichmentKind, params core.EnrichmentParams) (*core.JobHandle, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if _, err := core.ParseEnrichmentKind(string(kind)); err != nil {
		return nil, err
	}
	params.Prompt = strings.TrimSpace(params.Prompt)
	if kind == core.EnrichmentThumbnail && params.Prompt == "" {
		return nil, fmt.Errorf("%w: thumbnail generation requires a prompt", core.ErrValidation)
	}

	asset, err := s.repo.GetOwnedAsset(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if kind.RequiresCaptions() && asset.CaptionStatus != core.CaptionStatusReady {
		return nil, fmt.Errorf("%w: %s generation needs ready captions, caption status is %s", core.ErrPrecondition, kind, asset.CaptionStatus)
	}

	handle, err := s.dispatcher.Trigger(ctx, core.EnrichmentRequest{
		AssetID:     asset.ID,
		OwnerID:     asset.OwnerID,
		Kind:        kind,
		Revision:    asset.ThumbnailRevision,
		AssetRef:    asset.ProviderAssetRef,
		PlaybackRef: asset.ProviderPlaybackRef,
		CaptionRef:  asset.ProviderCaptionRef,
		Params:      params,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: dispatch %s job: %w", core.ErrUpstream, kind, err)
	}

	s.logger.Info().
		Str("asset_id", asset.ID.String()).
		Str("job_id", handle.ID.String()).
		Str("kind", string(kind)).
		Int64("revision", handle.Revision).
		Msg("enrichment dispatched")
	return handle, nil
}

func requireOwner(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return core.ErrUnauthenticated
	}
	return nil
}

func validatePatch(patch core.AssetPatch) error {
	var errs []error
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			errs = append(errs, errors.New("title must not be empty"))
		}
		if utf8.RuneCountInString(title) > maxTitleLength {
			errs = append(errs, fmt.Errorf("title exceeds %d characters", maxTitleLength))
		}
		*patch.Title = title
	}
	if patch.Description != nil && utf8.RuneCountInString(*patch.Description) > maxDescriptionLength {
		errs = append(errs, fmt.Errorf("description exceeds %d characters", maxDescriptionLength))
	}
	if patch.Visibility != nil {
		visibility, err := core.ParseVisibility(string(*patch.Visibility))
		if err != nil {
			errs = append(errs, fmt.Errorf("visibility %q is invalid", *patch.Visibility))
		} else {
			*patch.Visibility = visibility
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", core.ErrValidation, errors.Join(errs...))
	}
	return nil
}
