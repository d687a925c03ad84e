package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lexand-dev/vid-skool/internal/core"
)

// maxSwapAttempts bounds the re-read/re-decide loop when concurrent callbacks
// for the same asset keep winning the compare-and-set.
const maxSwapAttempts = 8

// Discard reasons reported beside the lifecycle ones in core.
const (
	ReasonUnknownRef      = "unknown provider ref"
	ReasonRefConflict     = "provider ref already bound to another asset"
	ReasonAssetGone       = "asset no longer exists"
	ReasonStaleJobVersion = "stale job version"
)

// IngestResult reports whether a callback changed state.
type IngestResult struct {
	Applied bool
	Reason  string
}

// CallbackService folds provider and enrichment callbacks into the asset store.
type CallbackService struct {
	repo   core.AssetRepository
	store  core.ObjectStore
	logger zerolog.Logger
	now    func() time.Time
}

// NewCallbackService constructs the ingestion service.
func NewCallbackService(repo core.AssetRepository, store core.ObjectStore, logger zerolog.Logger) *CallbackService {
	return &CallbackService{
		repo:   repo,
		store:  store,
		logger: logger.With().Str("component", "callback_service").Logger(),
		now:    time.Now,
	}
}

// WithClock allows tests to override the clock used by the service.
func (s *CallbackService) WithClock(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Ingest applies one decoded callback. Discarded callbacks are not errors; an
// error means the sender should retry.
func (s *CallbackService) Ingest(ctx context.Context, ev core.Event) (IngestResult, error) {
	if ev == nil {
		return IngestResult{}, fmt.Errorf("%w: empty event", core.ErrMalformedCallback)
	}
	if err := ev.Validate(); err != nil {
		return IngestResult{}, err
	}

	switch e := ev.(type) {
	case core.UploadAccepted, core.AssetReady, core.AssetErrored:
		return applyLifecycle(ctx, s, e.(core.ProviderScoped), core.Asset.Processing, core.NextProcessing, s.repo.SwapProcessing)
	case core.CaptionReady, core.CaptionErrored:
		return applyLifecycle(ctx, s, e.(core.ProviderScoped), core.Asset.Caption, core.NextCaption, s.repo.SwapCaption)
	case core.EnrichmentDone:
		return s.applyEnrichment(ctx, e)
	default:
		return IngestResult{}, fmt.Errorf("%w: unsupported event kind %s", core.ErrMalformedCallback, ev.Kind())
	}
}

func applyLifecycle[S comparable](
	ctx context.Context,
	s *CallbackService,
	ev core.ProviderScoped,
	read func(core.Asset) S,
	decide func(S, core.Event) (S, core.Decision),
	swap func(context.Context, string, S, S, time.Time) (bool, error),
) (IngestResult, error) {
	header := ev.Header()
	log := s.logger.With().
		Str("provider_ref", header.ProviderRef).
		Str("event_kind", string(ev.Kind())).
		Int64("sequence", header.Sequence).
		Logger()

	for attempt := 1; attempt <= maxSwapAttempts; attempt++ {
		asset, err := s.repo.GetAssetByUploadRef(ctx, header.ProviderRef)
		if errors.Is(err, core.ErrNotFound) {
			log.Warn().Msg("callback discarded: " + ReasonUnknownRef)
			return IngestResult{Reason: ReasonUnknownRef}, nil
		}
		if err != nil {
			return IngestResult{}, err
		}

		cur := read(*asset)
		next, decision := decide(cur, ev)
		if !decision.Apply {
			log.Info().Str("asset_id", asset.ID.String()).Msg("callback discarded: " + decision.Reason)
			return IngestResult{Reason: decision.Reason}, nil
		}

		swapped, err := swap(ctx, header.ProviderRef, cur, next, s.now().UTC())
		if errors.Is(err, core.ErrConflict) {
			log.Warn().Err(err).Str("asset_id", asset.ID.String()).Msg("callback discarded: " + ReasonRefConflict)
			return IngestResult{Reason: ReasonRefConflict}, nil
		}
		if err != nil {
			return IngestResult{}, err
		}
		if !swapped {
			log.Debug().Int("attempt", attempt).Msg("lost compare-and-set, re-reading")
			continue
		}

		if decision.Overrode {
			log.Warn().Str("asset_id", asset.ID.String()).Msg("unsequenced terminal event overrode the opposite terminal status")
		}
		log.Info().Str("asset_id", asset.ID.String()).Msg("callback applied")
		return IngestResult{Applied: true}, nil
	}

	return IngestResult{}, fmt.Errorf("callback %s for %s lost %d compare-and-set attempts", ev.Kind(), header.ProviderRef, maxSwapAttempts)
}

func (s *CallbackService) applyEnrichment(ctx context.Context, ev core.EnrichmentDone) (IngestResult, error) {
	log := s.logger.With().
		Str("asset_id", ev.AssetID.String()).
		Str("event_kind", string(ev.Kind())).
		Int64("job_version", ev.JobVersion).
		Logger()

	asset, err := s.repo.GetAsset(ctx, ev.AssetID)
	if errors.Is(err, core.ErrNotFound) {
		log.Info().Msg("enrichment discarded: " + ReasonAssetGone)
		return IngestResult{Reason: ReasonAssetGone}, nil
	}
	if err != nil {
		return IngestResult{}, err
	}

	if ev.JobKind != core.EnrichmentThumbnail {
		text := strings.TrimSpace(ev.Result)
		if ev.JobKind == core.EnrichmentTitle {
			text = truncateRunes(text, maxTitleLength)
		} else {
			text = truncateRunes(text, maxDescriptionLength)
		}
		ok, err := s.repo.SetEnrichedText(ctx, asset.ID, ev.JobKind, text, s.now().UTC())
		if err != nil {
			return IngestResult{}, err
		}
		if !ok {
			log.Info().Msg("enrichment discarded: " + ReasonAssetGone)
			return IngestResult{Reason: ReasonAssetGone}, nil
		}
		log.Info().Msg("enrichment applied")
		return IngestResult{Applied: true}, nil
	}

	if ev.JobVersion != asset.ThumbnailRevision {
		log.Info().Int64("revision", asset.ThumbnailRevision).Msg("enrichment discarded: " + ReasonStaleJobVersion)
		return IngestResult{Reason: ReasonStaleJobVersion}, nil
	}

	obj, err := s.store.UploadFromURL(ctx, ev.Result)
	if err != nil {
		return IngestResult{}, fmt.Errorf("%w: store generated thumbnail: %w", core.ErrUpstream, err)
	}

	swapped, err := s.repo.SwapThumbnail(ctx, core.ThumbnailSwap{
		AssetID:          asset.ID,
		ExpectedRevision: ev.JobVersion,
		Key:              obj.Key,
		URL:              obj.URL,
	}, s.now().UTC())
	if err != nil {
		s.deleteObject(ctx, obj.Key)
		return IngestResult{}, err
	}
	if !swapped {
		s.deleteObject(ctx, obj.Key)
		log.Info().Msg("enrichment discarded: " + ReasonStaleJobVersion)
		return IngestResult{Reason: ReasonStaleJobVersion}, nil
	}

	if asset.ThumbnailKey != "" {
		s.deleteObject(ctx, asset.ThumbnailKey)
	}
	log.Info().Str("thumbnail_key", obj.Key).Msg("enrichment applied")
	return IngestResult{Applied: true}, nil
}

func (s *CallbackService) deleteObject(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("thumbnail_key", key).Msg("orphaned thumbnail object")
	}
}

func truncateRunes(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return strings.TrimSpace(string(runes[:limit]))
}
