package fake

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/lexand-dev/vid-skool/internal/core"
)

// Provider is an in-process gateway for local runs. It hands out upload refs
// and never calls back; callbacks are posted to the webhook by hand.
type Provider struct {
	uploadBase    string
	thumbnailBase string

	mu          sync.Mutex
	reprocessed []string
}

// NewProvider constructs a fake provider gateway.
func NewProvider(uploadBase, thumbnailBase string) *Provider {
	return &Provider{
		uploadBase:    normalizeBase(uploadBase, "https://fake-upload.example.com"),
		thumbnailBase: normalizeBase(thumbnailBase, "https://fake-image.example.com"),
	}
}

var _ core.ProviderGateway = (*Provider)(nil)

// CreateUpload simulates issuing a direct upload slot.
func (p *Provider) CreateUpload(ctx context.Context, ownerID string, opts core.UploadOptions) (*core.ProviderUpload, error) {
	_ = ctx // unused in fake implementation

	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("fake provider: owner is required")
	}

	jobID := uuid.NewString()
	headers := map[string]string{"X-Fake-Provider": "true"}
	if opts.CORSOrigin != "" {
		headers["Origin"] = opts.CORSOrigin
	}

	return &core.ProviderUpload{
		JobID: jobID,
		Target: core.UploadTarget{
			Method:  "PUT",
			URL:     fmt.Sprintf("%s/%s", p.uploadBase, jobID),
			Headers: headers,
		},
	}, nil
}

// RequestReprocess records the request.
func (p *Provider) RequestReprocess(ctx context.Context, assetRef string) error {
	_ = ctx
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reprocessed = append(p.reprocessed, assetRef)
	return nil
}

// Reprocessed lists the asset refs passed to RequestReprocess.
func (p *Provider) Reprocessed() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.reprocessed...)
}

// ThumbnailURL derives a deterministic image URL for the playback ref.
func (p *Provider) ThumbnailURL(playbackRef string) string {
	return fmt.Sprintf("%s/%s/thumbnail.jpg", p.thumbnailBase, playbackRef)
}

func normalizeBase(base, fallback string) string {
	if base == "" {
		return fallback
	}
	return strings.TrimSuffix(base, "/")
}
