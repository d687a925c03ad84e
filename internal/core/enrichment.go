package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EnrichmentKind names a background generation job.
type EnrichmentKind string

const (
	EnrichmentTitle       EnrichmentKind = "title"
	EnrichmentDescription EnrichmentKind = "description"
	EnrichmentThumbnail   EnrichmentKind = "thumbnail"
)

// ParseEnrichmentKind converts user input into an EnrichmentKind.
func ParseEnrichmentKind(value string) (EnrichmentKind, error) {
	switch EnrichmentKind(strings.ToLower(strings.TrimSpace(value))) {
	case EnrichmentTitle:
		return EnrichmentTitle, nil
	case EnrichmentDescription:
		return EnrichmentDescription, nil
	case EnrichmentThumbnail:
		return EnrichmentThumbnail, nil
	default:
		return "", fmt.Errorf("%w: unknown enrichment kind %q", ErrValidation, value)
	}
}

// RequiresCaptions reports whether the job reads the caption track.
func (k EnrichmentKind) RequiresCaptions() bool {
	return k == EnrichmentTitle || k == EnrichmentDescription
}

// EnrichmentParams carries caller-supplied job inputs.
type EnrichmentParams struct {
	Prompt string
}

// EnrichmentRequest is the message handed to the dispatcher. Revision is the
// thumbnail revision observed at trigger time and comes back as the
// completion's job version.
type EnrichmentRequest struct {
	AssetID     uuid.UUID
	OwnerID     string
	Kind        EnrichmentKind
	Revision    int64
	AssetRef    string
	PlaybackRef string
	CaptionRef  string
	Params      EnrichmentParams
}

// JobHandle identifies a dispatched enrichment job.
type JobHandle struct {
	ID          uuid.UUID
	AssetID     uuid.UUID
	Kind        EnrichmentKind
	Revision    int64
	RequestedAt time.Time
}

// EnrichmentDispatcher schedules background jobs. Delivery is at-least-once and
// results arrive later through the callback surface.
type EnrichmentDispatcher interface {
	Trigger(ctx context.Context, req EnrichmentRequest) (*JobHandle, error)
}
