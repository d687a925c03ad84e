package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventKind tags an inbound callback.
type EventKind string

const (
	EventUploadAccepted        EventKind = "upload.accepted"
	EventAssetReady            EventKind = "asset.ready"
	EventAssetErrored          EventKind = "asset.errored"
	EventCaptionReady          EventKind = "caption.ready"
	EventCaptionErrored        EventKind = "caption.errored"
	EventEnrichmentTitle       EventKind = "enrichment.title.done"
	EventEnrichmentDescription EventKind = "enrichment.description.done"
	EventEnrichmentThumbnail   EventKind = "enrichment.thumbnail.done"
)

// EnrichmentEventKind returns the completion kind for an enrichment job.
func EnrichmentEventKind(kind EnrichmentKind) EventKind {
	return EventKind("enrichment." + string(kind) + ".done")
}

// Event is a decoded callback. Each kind is its own type so dispatch is a
// type switch rather than string comparisons spread across handlers.
type Event interface {
	Kind() EventKind
	Validate() error
}

// ProviderEvent is the envelope shared by every provider-originated callback.
// A zero Sequence means the provider did not order the event.
type ProviderEvent struct {
	ProviderRef string
	Sequence    int64
}

// Header returns the envelope fields.
func (e ProviderEvent) Header() ProviderEvent { return e }

func (e ProviderEvent) validate(kind EventKind) error {
	if strings.TrimSpace(e.ProviderRef) == "" {
		return fmt.Errorf("%w: %s without providerRef", ErrMalformedCallback, kind)
	}
	if e.Sequence < 0 {
		return fmt.Errorf("%w: %s with negative sequence", ErrMalformedCallback, kind)
	}
	return nil
}

// ProviderScoped is implemented by every callback addressed by upload ref.
type ProviderScoped interface {
	Event
	Header() ProviderEvent
}

type UploadAccepted struct {
	ProviderEvent
	AssetRef string
}

func (UploadAccepted) Kind() EventKind { return EventUploadAccepted }

func (e UploadAccepted) Validate() error { return e.validate(EventUploadAccepted) }

type AssetReady struct {
	ProviderEvent
	AssetRef    string
	PlaybackRef string
	Duration    time.Duration
}

func (AssetReady) Kind() EventKind { return EventAssetReady }

func (e AssetReady) Validate() error {
	if err := e.validate(EventAssetReady); err != nil {
		return err
	}
	if strings.TrimSpace(e.PlaybackRef) == "" {
		return fmt.Errorf("%w: asset.ready without playbackRef", ErrMalformedCallback)
	}
	if e.Duration < 0 {
		return fmt.Errorf("%w: asset.ready with negative duration", ErrMalformedCallback)
	}
	return nil
}

type AssetErrored struct {
	ProviderEvent
	AssetRef string
	Reason   string
}

func (AssetErrored) Kind() EventKind { return EventAssetErrored }

func (e AssetErrored) Validate() error { return e.validate(EventAssetErrored) }

type CaptionReady struct {
	ProviderEvent
	CaptionRef string
}

func (CaptionReady) Kind() EventKind { return EventCaptionReady }

func (e CaptionReady) Validate() error {
	if err := e.validate(EventCaptionReady); err != nil {
		return err
	}
	if strings.TrimSpace(e.CaptionRef) == "" {
		return fmt.Errorf("%w: caption.ready without captionRef", ErrMalformedCallback)
	}
	return nil
}

type CaptionErrored struct {
	ProviderEvent
	CaptionRef string
	Reason     string
}

func (CaptionErrored) Kind() EventKind { return EventCaptionErrored }

func (e CaptionErrored) Validate() error {
	if err := e.validate(EventCaptionErrored); err != nil {
		return err
	}
	if strings.TrimSpace(e.CaptionRef) == "" {
		return fmt.Errorf("%w: caption.errored without captionRef", ErrMalformedCallback)
	}
	return nil
}

// EnrichmentDone is the completion of a dispatched enrichment job. JobVersion
// echoes the revision the job was triggered against.
type EnrichmentDone struct {
	AssetID    uuid.UUID
	JobKind    EnrichmentKind
	Result     string
	JobVersion int64
}

func (e EnrichmentDone) Kind() EventKind { return EnrichmentEventKind(e.JobKind) }

func (e EnrichmentDone) Validate() error {
	if e.AssetID == uuid.Nil {
		return fmt.Errorf("%w: %s without assetId", ErrMalformedCallback, e.Kind())
	}
	if _, err := ParseEnrichmentKind(string(e.JobKind)); err != nil {
		return fmt.Errorf("%w: unknown enrichment kind %q", ErrMalformedCallback, e.JobKind)
	}
	if strings.TrimSpace(e.Result) == "" {
		return fmt.Errorf("%w: %s without result", ErrMalformedCallback, e.Kind())
	}
	if e.JobVersion < 0 {
		return fmt.Errorf("%w: %s with negative jobVersion", ErrMalformedCallback, e.Kind())
	}
	return nil
}
