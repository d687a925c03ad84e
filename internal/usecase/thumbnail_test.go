package usecase

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/lexand-dev/vid-skool/internal/core"
)

func readyAsset(owner, uploadRef string) core.Asset {
	asset := seedAsset(owner, uploadRef)
	asset.ProcessingStatus = core.ProcessingStatusReady
	asset.ProcessingSeq = 1
	asset.ProviderAssetRef = "a1"
	asset.ProviderPlaybackRef = "pb1"
	return asset
}

func TestRestoreThumbnail_WithoutPlaybackRef(t *testing.T) {
	asset := seedAsset("u1", "up1")
	asset.ThumbnailKey = "thumbnails/old.jpg"
	asset.ThumbnailURL = "https://cdn.local/thumbnails/old.jpg"
	store := newMemoryStore(asset.ThumbnailKey)
	service := newTestService(newMemoryRepo(asset), &stubGateway{}, &stubDispatcher{}, store)

	_, err := service.RestoreThumbnail(context.Background(), asset.ID, "u1")
	if !errors.Is(err, core.ErrPrecondition) {
		t.Fatalf("expected ErrPrecondition, got %v", err)
	}
	if store.callCount() != 0 {
		t.Fatalf("expected no object-store calls, got %d", store.callCount())
	}
}

func TestRestoreThumbnail_ReplacesPointer(t *testing.T) {
	asset := readyAsset("u1", "up1")
	asset.ThumbnailKey = "thumbnails/old.jpg"
	asset.ThumbnailURL = "https://cdn.local/thumbnails/old.jpg"
	asset.ThumbnailRevision = 2
	repo := newMemoryRepo(asset)
	store := newMemoryStore(asset.ThumbnailKey)
	service := newTestService(repo, &stubGateway{}, &stubDispatcher{}, store)

	got, err := service.RestoreThumbnail(context.Background(), asset.ID, "u1")
	if err != nil {
		t.Fatalf("RestoreThumbnail() error = %v", err)
	}
	if got.ThumbnailRevision != 3 {
		t.Fatalf("expected revision 3, got %d", got.ThumbnailRevision)
	}
	if store.has("thumbnails/old.jpg") {
		t.Fatal("expected old object to be deleted")
	}
	if !store.has(got.ThumbnailKey) {
		t.Fatalf("expected new object %q to exist", got.ThumbnailKey)
	}
	if string(store.objects[got.ThumbnailKey]) != "https://image.test/pb1/thumbnail.jpg" {
		t.Fatalf("expected upload from provider thumbnail, got %q", store.objects[got.ThumbnailKey])
	}
	stored, _ := repo.snapshot(asset.ID)
	if stored.Thumbnail() != got.Thumbnail() {
		t.Fatalf("expected stored %+v to equal returned %+v", stored.Thumbnail(), got.Thumbnail())
	}
}

func TestRestoreThumbnail_DeleteFailureLeavesRowUntouched(t *testing.T) {
	asset := readyAsset("u1", "up1")
	asset.ThumbnailKey = "thumbnails/old.jpg"
	asset.ThumbnailURL = "https://cdn.local/thumbnails/old.jpg"
	repo := newMemoryRepo(asset)
	store := newMemoryStore(asset.ThumbnailKey)
	store.deleteErr = errors.New("access denied")
	service := newTestService(repo, &stubGateway{}, &stubDispatcher{}, store)

	if _, err := service.RestoreThumbnail(context.Background(), asset.ID, "u1"); !errors.Is(err, core.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	stored, _ := repo.snapshot(asset.ID)
	if stored.Thumbnail() != asset.Thumbnail() {
		t.Fatalf("expected row untouched, got %+v", stored.Thumbnail())
	}
}

func TestRestoreThumbnail_UploadFailureClearsDanglingPointer(t *testing.T) {
	asset := readyAsset("u1", "up1")
	asset.ThumbnailKey = "thumbnails/old.jpg"
	asset.ThumbnailURL = "https://cdn.local/thumbnails/old.jpg"
	repo := newMemoryRepo(asset)
	store := newMemoryStore(asset.ThumbnailKey)
	store.uploadErr = errors.New("source unreachable")
	service := newTestService(repo, &stubGateway{}, &stubDispatcher{}, store)

	if _, err := service.RestoreThumbnail(context.Background(), asset.ID, "u1"); !errors.Is(err, core.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	stored, _ := repo.snapshot(asset.ID)
	if stored.ThumbnailKey != "" || stored.ThumbnailURL != "" {
		t.Fatalf("expected pointer cleared, got %+v", stored.Thumbnail())
	}

	// Replaying after the fault converges.
	store.uploadErr = nil
	got, err := service.RestoreThumbnail(context.Background(), asset.ID, "u1")
	if err != nil {
		t.Fatalf("RestoreThumbnail() retry error = %v", err)
	}
	if !store.has(got.ThumbnailKey) {
		t.Fatalf("expected %q to exist", got.ThumbnailKey)
	}
}

func TestRestoreThumbnail_LostRaceDeletesOwnUpload(t *testing.T) {
	asset := readyAsset("u1", "up1")
	repo := newMemoryRepo(asset)
	store := newMemoryStore()
	service := newTestService(repo, &stubGateway{}, &stubDispatcher{}, store)

	repo.beforeSwap = func() {
		repo.beforeSwap = nil
		repo.mu.Lock()
		a := repo.assets[asset.ID]
		a.ThumbnailKey = "thumbnails/winner.jpg"
		a.ThumbnailRevision++
		repo.assets[asset.ID] = a
		repo.mu.Unlock()
	}

	_, err := service.RestoreThumbnail(context.Background(), asset.ID, "u1")
	if !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if len(store.objects) != 0 {
		t.Fatalf("expected own upload to be removed, store holds %v", store.objects)
	}
}

func TestRestoreThumbnail_ConcurrentCallsNeverDangle(t *testing.T) {
	for round := 0; round < 20; round++ {
		asset := readyAsset("u1", "up1")
		asset.ThumbnailKey = "thumbnails/seed.jpg"
		asset.ThumbnailURL = "https://cdn.local/thumbnails/seed.jpg"
		repo := newMemoryRepo(asset)
		store := newMemoryStore(asset.ThumbnailKey)
		service := newTestService(repo, &stubGateway{}, &stubDispatcher{}, store)

		var wg sync.WaitGroup
		errs := make([]error, 4)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = service.RestoreThumbnail(context.Background(), asset.ID, "u1")
			}(i)
		}
		wg.Wait()

		for _, err := range errs {
			if err != nil && !errors.Is(err, core.ErrConflict) {
				t.Fatalf("round %d: unexpected error %v", round, err)
			}
		}
		stored, _ := repo.snapshot(asset.ID)
		if stored.ThumbnailKey != "" && !store.has(stored.ThumbnailKey) {
			t.Fatalf("round %d: row points at deleted object %q", round, stored.ThumbnailKey)
		}
	}
}

func TestUploadThumbnail(t *testing.T) {
	asset := seedAsset("u1", "up1")
	repo := newMemoryRepo(asset)
	store := newMemoryStore()
	service := newTestService(repo, &stubGateway{}, &stubDispatcher{}, store)

	data := []byte("png")
	got, err := service.UploadThumbnail(context.Background(), asset.ID, "u1", core.ObjectUpload{
		Body:        bytes.NewReader(data),
		Size:        int64(len(data)),
		ContentType: "image/png",
	})
	if err != nil {
		t.Fatalf("UploadThumbnail() error = %v", err)
	}
	if got.ThumbnailRevision != 1 || !store.has(got.ThumbnailKey) {
		t.Fatalf("unexpected result %+v", got.Thumbnail())
	}

	_, err = service.UploadThumbnail(context.Background(), asset.ID, "u1", core.ObjectUpload{
		Body:        bytes.NewReader(data),
		Size:        int64(len(data)),
		ContentType: "text/plain",
	})
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	_, err = service.UploadThumbnail(context.Background(), asset.ID, "u2", core.ObjectUpload{
		Body:        bytes.NewReader(data),
		Size:        int64(len(data)),
		ContentType: "image/png",
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for wrong owner, got %v", err)
	}
}
