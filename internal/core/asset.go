package core

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProcessingStatus mirrors the provider-side asset processing state.
type ProcessingStatus string

const (
	ProcessingStatusPending ProcessingStatus = "pending"
	ProcessingStatusWaiting ProcessingStatus = "waiting"
	ProcessingStatusReady   ProcessingStatus = "ready"
	ProcessingStatusErrored ProcessingStatus = "errored"
)

// Terminal reports whether the provider considers processing finished.
func (s ProcessingStatus) Terminal() bool {
	return s == ProcessingStatusReady || s == ProcessingStatusErrored
}

// CaptionStatus mirrors the provider-side caption track job, independent of processing.
type CaptionStatus string

const (
	CaptionStatusNone    CaptionStatus = "none"
	CaptionStatusPending CaptionStatus = "pending"
	CaptionStatusReady   CaptionStatus = "ready"
	CaptionStatusErrored CaptionStatus = "errored"
)

// Terminal reports whether the caption job is finished.
func (s CaptionStatus) Terminal() bool {
	return s == CaptionStatusReady || s == CaptionStatusErrored
}

// Visibility controls who may view an asset.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// ParseVisibility converts user input into a Visibility.
func ParseVisibility(value string) (Visibility, error) {
	switch Visibility(strings.ToLower(strings.TrimSpace(value))) {
	case VisibilityPrivate:
		return VisibilityPrivate, nil
	case VisibilityPublic:
		return VisibilityPublic, nil
	default:
		return "", fmt.Errorf("%w: unknown visibility %q", ErrValidation, value)
	}
}

// DefaultAssetTitle is assigned to freshly created assets until the owner or an
// enrichment job sets one.
const DefaultAssetTitle = "New Video"

// UploadTarget contains the instructions required for a client-side upload.
type UploadTarget struct {
	Method  string
	URL     string
	Headers map[string]string
}

// Asset is the locally owned record kept consistent with the provider.
type Asset struct {
	ID          uuid.UUID
	OwnerID     string
	Title       *string
	Description *string
	CategoryRef *string
	Visibility  Visibility

	ProcessingStatus ProcessingStatus
	ProcessingSeq    int64
	CaptionStatus    CaptionStatus
	CaptionSeq       int64

	ProviderUploadRef   string
	ProviderAssetRef    string
	ProviderPlaybackRef string
	ProviderCaptionRef  string
	Duration            time.Duration

	ThumbnailKey      string
	ThumbnailURL      string
	ThumbnailRevision int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProcessingState is the slice of an asset owned by the processing lifecycle.
type ProcessingState struct {
	Status      ProcessingStatus
	Seq         int64
	AssetRef    string
	PlaybackRef string
	Duration    time.Duration
}

// CaptionState is the slice of an asset owned by the caption lifecycle.
type CaptionState struct {
	Status     CaptionStatus
	Seq        int64
	CaptionRef string
}

// ThumbnailState is the object-store pointer of an asset and its revision.
type ThumbnailState struct {
	Key      string
	URL      string
	Revision int64
}

// Processing extracts the processing lifecycle fields.
func (a Asset) Processing() ProcessingState {
	return ProcessingState{
		Status:      a.ProcessingStatus,
		Seq:         a.ProcessingSeq,
		AssetRef:    a.ProviderAssetRef,
		PlaybackRef: a.ProviderPlaybackRef,
		Duration:    a.Duration,
	}
}

// Caption extracts the caption lifecycle fields.
func (a Asset) Caption() CaptionState {
	return CaptionState{
		Status:     a.CaptionStatus,
		Seq:        a.CaptionSeq,
		CaptionRef: a.ProviderCaptionRef,
	}
}

// Thumbnail extracts the thumbnail pointer.
func (a Asset) Thumbnail() ThumbnailState {
	return ThumbnailState{
		Key:      a.ThumbnailKey,
		URL:      a.ThumbnailURL,
		Revision: a.ThumbnailRevision,
	}
}

// AssetPatch carries the user-editable fields of UpdateAsset; nil means unchanged.
type AssetPatch struct {
	Title       *string
	Description *string
	Visibility  *Visibility
	CategoryRef *string
}

// Empty reports whether the patch changes nothing.
func (p AssetPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Visibility == nil && p.CategoryRef == nil
}

// AssetListFilter describes pagination options for an owner's assets.
type AssetListFilter struct {
	OwnerID   string
	PageSize  int
	PageToken string
}

// ThumbnailSwap is a compare-and-set of the thumbnail pointer. An empty OwnerID
// leaves the owner unscoped (enrichment completions). Empty Key and URL clear
// the pointer.
type ThumbnailSwap struct {
	AssetID          uuid.UUID
	OwnerID          string
	ExpectedRevision int64
	Key              string
	URL              string
}

// AssetRepository defines the persistence contract for assets. Every mutating
// method is a single scoped statement; the Swap methods only write when the
// expected state still matches and report whether they did.
type AssetRepository interface {
	CreateAsset(ctx context.Context, asset Asset) error
	GetAsset(ctx context.Context, id uuid.UUID) (*Asset, error)
	GetOwnedAsset(ctx context.Context, id uuid.UUID, ownerID string) (*Asset, error)
	GetAssetByUploadRef(ctx context.Context, uploadRef string) (*Asset, error)
	ListOwnedAssets(ctx context.Context, filter AssetListFilter) ([]Asset, string, error)
	UpdateOwnedAsset(ctx context.Context, id uuid.UUID, ownerID string, patch AssetPatch, at time.Time) (*Asset, error)
	DeleteOwnedAsset(ctx context.Context, id uuid.UUID, ownerID string) (*Asset, error)

	SwapProcessing(ctx context.Context, uploadRef string, expected, next ProcessingState, at time.Time) (bool, error)
	SwapCaption(ctx context.Context, uploadRef string, expected, next CaptionState, at time.Time) (bool, error)
	SwapThumbnail(ctx context.Context, swap ThumbnailSwap, at time.Time) (bool, error)
	SetEnrichedText(ctx context.Context, id uuid.UUID, kind EnrichmentKind, text string, at time.Time) (bool, error)
}

// UploadOptions are passed to the provider when requesting an upload slot.
type UploadOptions struct {
	CORSOrigin     string
	PublicPlayback bool
}

// ProviderUpload is the provider's answer to CreateUpload.
type ProviderUpload struct {
	JobID  string
	Target UploadTarget
}

// ProviderGateway is the outbound contract with the transcoding provider.
type ProviderGateway interface {
	CreateUpload(ctx context.Context, ownerID string, opts UploadOptions) (*ProviderUpload, error)
	RequestReprocess(ctx context.Context, assetRef string) error
	// ThumbnailURL derives the provider-hosted fallback thumbnail for a playback ref.
	ThumbnailURL(playbackRef string) string
}

// ObjectUpload describes bytes pushed to the object store.
type ObjectUpload struct {
	Body        io.Reader
	Size        int64
	ContentType string
}

// StoredObject is the stable key and public URL of an uploaded object.
type StoredObject struct {
	Key string
	URL string
}

// ObjectStore uploads and deletes externally hosted binary objects.
type ObjectStore interface {
	Upload(ctx context.Context, obj ObjectUpload) (*StoredObject, error)
	UploadFromURL(ctx context.Context, sourceURL string) (*StoredObject, error)
	Delete(ctx context.Context, key string) error
}

// CreateAssetResult bundles the new asset and where the caller pushes bytes.
type CreateAssetResult struct {
	Asset  Asset
	Target UploadTarget
}

// AssetService exposes the command surface to the transport layer. Every
// method is scoped to ownerID.
type AssetService interface {
	CreateAsset(ctx context.Context, ownerID string) (*CreateAssetResult, error)
	GetAsset(ctx context.Context, id uuid.UUID, ownerID string) (*Asset, error)
	ListAssets(ctx context.Context, filter AssetListFilter) ([]Asset, string, error)
	UpdateAsset(ctx context.Context, id uuid.UUID, ownerID string, patch AssetPatch) (*Asset, error)
	RemoveAsset(ctx context.Context, id uuid.UUID, ownerID string) (*Asset, error)
	RevalidateAsset(ctx context.Context, id uuid.UUID, ownerID string) (*Asset, error)
	TriggerEnrichment(ctx context.Context, id uuid.UUID, ownerID string, kind EnrichmentKind, params EnrichmentParams) (*JobHandle, error)
	RestoreThumbnail(ctx context.Context, id uuid.UUID, ownerID string) (*Asset, error)
	UploadThumbnail(ctx context.Context, id uuid.UUID, ownerID string, upload ObjectUpload) (*Asset, error)
}
