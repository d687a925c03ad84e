package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lexand-dev/vid-skool/internal/core"
)

var fixedNow = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func testLogger() zerolog.Logger { return zerolog.Nop() }

// memoryRepo mirrors the guarded writes of the SQL repository in memory.
type memoryRepo struct {
	mu     sync.Mutex
	assets map[uuid.UUID]core.Asset

	getErr  error
	swapErr error
	// beforeSwap runs outside the lock before each thumbnail swap.
	beforeSwap func()
}

func newMemoryRepo(assets ...core.Asset) *memoryRepo {
	repo := &memoryRepo{assets: map[uuid.UUID]core.Asset{}}
	for _, a := range assets {
		repo.assets[a.ID] = a
	}
	return repo
}

var _ core.AssetRepository = (*memoryRepo)(nil)

func (r *memoryRepo) snapshot(id uuid.UUID) (core.Asset, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assets[id]
	return a, ok
}

func (r *memoryRepo) CreateAsset(ctx context.Context, asset core.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.assets {
		if asset.ProviderUploadRef != "" && existing.ProviderUploadRef == asset.ProviderUploadRef {
			return fmt.Errorf("%w: duplicate upload ref", core.ErrConflict)
		}
	}
	r.assets[asset.ID] = asset
	return nil
}

func (r *memoryRepo) GetAsset(ctx context.Context, id uuid.UUID) (*core.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	a, ok := r.assets[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &a, nil
}

func (r *memoryRepo) GetOwnedAsset(ctx context.Context, id uuid.UUID, ownerID string) (*core.Asset, error) {
	a, err := r.GetAsset(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.OwnerID != ownerID {
		return nil, core.ErrNotFound
	}
	return a, nil
}

func (r *memoryRepo) GetAssetByUploadRef(ctx context.Context, uploadRef string) (*core.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, a := range r.assets {
		if a.ProviderUploadRef == uploadRef {
			copied := a
			return &copied, nil
		}
	}
	return nil, core.ErrNotFound
}

func (r *memoryRepo) ListOwnedAssets(ctx context.Context, filter core.AssetListFilter) ([]core.Asset, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []core.Asset
	for _, a := range r.assets {
		if a.OwnerID == filter.OwnerID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	offset := 0
	if filter.PageToken != "" {
		n, err := strconv.Atoi(filter.PageToken)
		if err != nil {
			return nil, "", core.ErrInvalidPageToken
		}
		offset = n
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	next := ""
	if filter.PageSize > 0 && len(out) > filter.PageSize {
		out = out[:filter.PageSize]
		next = strconv.Itoa(offset + filter.PageSize)
	}
	return out, next, nil
}

func (r *memoryRepo) UpdateOwnedAsset(ctx context.Context, id uuid.UUID, ownerID string, patch core.AssetPatch, at time.Time) (*core.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assets[id]
	if !ok || a.OwnerID != ownerID {
		return nil, core.ErrNotFound
	}
	if patch.Title != nil {
		v := *patch.Title
		a.Title = &v
	}
	if patch.Description != nil {
		v := *patch.Description
		a.Description = &v
	}
	if patch.Visibility != nil {
		a.Visibility = *patch.Visibility
	}
	if patch.CategoryRef != nil {
		v := *patch.CategoryRef
		a.CategoryRef = &v
	}
	a.UpdatedAt = at
	r.assets[id] = a
	return &a, nil
}

func (r *memoryRepo) DeleteOwnedAsset(ctx context.Context, id uuid.UUID, ownerID string) (*core.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assets[id]
	if !ok || a.OwnerID != ownerID {
		return nil, core.ErrNotFound
	}
	delete(r.assets, id)
	return &a, nil
}

func (r *memoryRepo) SwapProcessing(ctx context.Context, uploadRef string, expected, next core.ProcessingState, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.swapErr != nil {
		return false, r.swapErr
	}
	for id, a := range r.assets {
		if a.ProviderUploadRef != uploadRef || a.Processing() != expected {
			continue
		}
		a.ProcessingStatus = next.Status
		a.ProcessingSeq = next.Seq
		a.ProviderAssetRef = next.AssetRef
		a.ProviderPlaybackRef = next.PlaybackRef
		a.Duration = next.Duration
		a.UpdatedAt = at
		r.assets[id] = a
		return true, nil
	}
	return false, nil
}

func (r *memoryRepo) SwapCaption(ctx context.Context, uploadRef string, expected, next core.CaptionState, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.swapErr != nil {
		return false, r.swapErr
	}
	for id, a := range r.assets {
		if a.ProviderUploadRef != uploadRef || a.Caption() != expected {
			continue
		}
		a.CaptionStatus = next.Status
		a.CaptionSeq = next.Seq
		a.ProviderCaptionRef = next.CaptionRef
		a.UpdatedAt = at
		r.assets[id] = a
		return true, nil
	}
	return false, nil
}

func (r *memoryRepo) SwapThumbnail(ctx context.Context, swap core.ThumbnailSwap, at time.Time) (bool, error) {
	if r.beforeSwap != nil {
		r.beforeSwap()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.swapErr != nil {
		return false, r.swapErr
	}
	a, ok := r.assets[swap.AssetID]
	if !ok || a.ThumbnailRevision != swap.ExpectedRevision {
		return false, nil
	}
	if swap.OwnerID != "" && a.OwnerID != swap.OwnerID {
		return false, nil
	}
	a.ThumbnailKey = swap.Key
	a.ThumbnailURL = swap.URL
	a.ThumbnailRevision++
	a.UpdatedAt = at
	r.assets[swap.AssetID] = a
	return true, nil
}

func (r *memoryRepo) SetEnrichedText(ctx context.Context, id uuid.UUID, kind core.EnrichmentKind, text string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assets[id]
	if !ok {
		return false, nil
	}
	v := text
	switch kind {
	case core.EnrichmentTitle:
		a.Title = &v
	case core.EnrichmentDescription:
		a.Description = &v
	default:
		return false, core.ErrValidation
	}
	a.UpdatedAt = at
	r.assets[id] = a
	return true, nil
}

// memoryStore is a thread-safe object store that records every call.
type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	calls   int
	deleted []string
	seq     int

	uploadErr error
	deleteErr error
}

func newMemoryStore(keys ...string) *memoryStore {
	store := &memoryStore{objects: map[string][]byte{}}
	for _, k := range keys {
		store.objects[k] = []byte("seed")
	}
	return store
}

var _ core.ObjectStore = (*memoryStore)(nil)

func (s *memoryStore) Upload(ctx context.Context, obj core.ObjectUpload) (*core.StoredObject, error) {
	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return nil, err
	}
	return s.put(data)
}

func (s *memoryStore) UploadFromURL(ctx context.Context, sourceURL string) (*core.StoredObject, error) {
	return s.put([]byte(sourceURL))
}

func (s *memoryStore) put(data []byte) (*core.StoredObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	s.seq++
	key := fmt.Sprintf("thumbnails/%d.jpg", s.seq)
	s.objects[key] = bytes.Clone(data)
	return &core.StoredObject{Key: key, URL: "https://cdn.local/" + key}, nil
}

func (s *memoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, key)
	delete(s.objects, key)
	return nil
}

func (s *memoryStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

func (s *memoryStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubGateway struct {
	createUploadFn     func(ctx context.Context, ownerID string, opts core.UploadOptions) (*core.ProviderUpload, error)
	requestReprocessFn func(ctx context.Context, assetRef string) error
}

var _ core.ProviderGateway = (*stubGateway)(nil)

func (s *stubGateway) CreateUpload(ctx context.Context, ownerID string, opts core.UploadOptions) (*core.ProviderUpload, error) {
	if s.createUploadFn == nil {
		return nil, errors.New("unexpected CreateUpload call")
	}
	return s.createUploadFn(ctx, ownerID, opts)
}

func (s *stubGateway) RequestReprocess(ctx context.Context, assetRef string) error {
	if s.requestReprocessFn == nil {
		return errors.New("unexpected RequestReprocess call")
	}
	return s.requestReprocessFn(ctx, assetRef)
}

func (s *stubGateway) ThumbnailURL(playbackRef string) string {
	return "https://image.test/" + playbackRef + "/thumbnail.jpg"
}

type stubDispatcher struct {
	triggerFn func(ctx context.Context, req core.EnrichmentRequest) (*core.JobHandle, error)
	calls     int
}

var _ core.EnrichmentDispatcher = (*stubDispatcher)(nil)

func (s *stubDispatcher) Trigger(ctx context.Context, req core.EnrichmentRequest) (*core.JobHandle, error) {
	s.calls++
	if s.triggerFn == nil {
		return &core.JobHandle{ID: uuid.New(), AssetID: req.AssetID, Kind: req.Kind, Revision: req.Revision, RequestedAt: fixedNow}, nil
	}
	return s.triggerFn(ctx, req)
}

func newTestService(repo core.AssetRepository, gateway core.ProviderGateway, dispatcher core.EnrichmentDispatcher, store core.ObjectStore) *AssetService {
	service := NewAssetService(repo, gateway, dispatcher, store, testLogger(), AssetServiceConfig{PublicPlayback: true})
	service.WithClock(func() time.Time { return fixedNow })
	return service
}

func newTestCallbacks(repo core.AssetRepository, store core.ObjectStore) *CallbackService {
	service := NewCallbackService(repo, store, testLogger())
	service.WithClock(func() time.Time { return fixedNow })
	return service
}

func seedAsset(owner, uploadRef string) core.Asset {
	title := core.DefaultAssetTitle
	return core.Asset{
		ID:                uuid.New(),
		OwnerID:           owner,
		Title:             &title,
		Visibility:        core.VisibilityPrivate,
		ProcessingStatus:  core.ProcessingStatusWaiting,
		CaptionStatus:     core.CaptionStatusNone,
		ProviderUploadRef: uploadRef,
		CreatedAt:         fixedNow,
		UpdatedAt:         fixedNow,
	}
}
