package transport

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lexand-dev/vid-skool/internal/core"
)

// Validator is implemented by request messages checked by the validation interceptor.
type Validator interface {
	Validate() error
}

// AssetView is the wire representation of an asset.
type AssetView struct {
	ID                string    `json:"id"`
	OwnerID           string    `json:"ownerId"`
	Title             *string   `json:"title,omitempty"`
	Description       *string   `json:"description,omitempty"`
	CategoryRef       *string   `json:"categoryRef,omitempty"`
	Visibility        string    `json:"visibility"`
	ProcessingStatus  string    `json:"processingStatus"`
	CaptionStatus     string    `json:"captionStatus"`
	PlaybackRef       string    `json:"playbackRef,omitempty"`
	DurationSeconds   float64   `json:"durationSeconds,omitempty"`
	ThumbnailURL      string    `json:"thumbnailUrl,omitempty"`
	ThumbnailRevision int64     `json:"thumbnailRevision"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type UploadTargetView struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

type JobView struct {
	ID          string    `json:"id"`
	AssetID     string    `json:"assetId"`
	Kind        string    `json:"kind"`
	Revision    int64     `json:"revision"`
	RequestedAt time.Time `json:"requestedAt"`
}

type CreateAssetRequest struct{}

func (CreateAssetRequest) Validate() error { return nil }

type CreateAssetResponse struct {
	Asset  AssetView        `json:"asset"`
	Upload UploadTargetView `json:"upload"`
}

// AssetRequest addresses a single asset by id.
type AssetRequest struct {
	ID string `json:"id"`
}

func (r AssetRequest) Validate() error {
	_, err := parseAssetID(r.ID)
	return err
}

type AssetResponse struct {
	Asset AssetView `json:"asset"`
}

type ListAssetsRequest struct {
	PageSize  int    `json:"pageSize"`
	PageToken string `json:"pageToken"`
}

func (r ListAssetsRequest) Validate() error {
	if r.PageSize < 0 {
		return fmt.Errorf("%w: pageSize must not be negative", core.ErrValidation)
	}
	return nil
}

type ListAssetsResponse struct {
	Assets        []AssetView `json:"assets"`
	NextPageToken string      `json:"nextPageToken,omitempty"`
}

type UpdateAssetRequest struct {
	ID          string  `json:"id"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Visibility  *string `json:"visibility,omitempty"`
	CategoryRef *string `json:"categoryRef,omitempty"`
}

func (r UpdateAssetRequest) Validate() error {
	var errs []error
	if _, err := parseAssetID(r.ID); err != nil {
		errs = append(errs, err)
	}
	if r.Visibility != nil {
		if _, err := core.ParseVisibility(*r.Visibility); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r UpdateAssetRequest) patch() (core.AssetPatch, error) {
	patch := core.AssetPatch{
		Title:       r.Title,
		Description: r.Description,
		CategoryRef: r.CategoryRef,
	}
	if r.Visibility != nil {
		visibility, err := core.ParseVisibility(*r.Visibility)
		if err != nil {
			return core.AssetPatch{}, err
		}
		patch.Visibility = &visibility
	}
	return patch, nil
}

type TriggerEnrichmentRequest struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Prompt string `json:"prompt,omitempty"`
}

func (r TriggerEnrichmentRequest) Validate() error {
	var errs []error
	if _, err := parseAssetID(r.ID); err != nil {
		errs = append(errs, err)
	}
	if _, err := core.ParseEnrichmentKind(r.Kind); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

type TriggerEnrichmentResponse struct {
	Job JobView `json:"job"`
}

// UploadThumbnailRequest carries image bytes; Data is base64 on the wire.
type UploadThumbnailRequest struct {
	ID          string `json:"id"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

func (r UploadThumbnailRequest) Validate() error {
	var errs []error
	if _, err := parseAssetID(r.ID); err != nil {
		errs = append(errs, err)
	}
	if len(r.Data) == 0 {
		errs = append(errs, fmt.Errorf("%w: data is required", core.ErrValidation))
	}
	if strings.TrimSpace(r.ContentType) == "" {
		errs = append(errs, fmt.Errorf("%w: contentType is required", core.ErrValidation))
	}
	return errors.Join(errs...)
}

func parseAssetID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid asset id %q", core.ErrValidation, raw)
	}
	return id, nil
}

func toAssetView(asset *core.Asset) AssetView {
	if asset == nil {
		return AssetView{}
	}
	return AssetView{
		ID:                asset.ID.String(),
		OwnerID:           asset.OwnerID,
		Title:             asset.Title,
		Description:       asset.Description,
		CategoryRef:       asset.CategoryRef,
		Visibility:        string(asset.Visibility),
		ProcessingStatus:  string(asset.ProcessingStatus),
		CaptionStatus:     string(asset.CaptionStatus),
		PlaybackRef:       asset.ProviderPlaybackRef,
		DurationSeconds:   asset.Duration.Seconds(),
		ThumbnailURL:      asset.ThumbnailURL,
		ThumbnailRevision: asset.ThumbnailRevision,
		CreatedAt:         asset.CreatedAt,
		UpdatedAt:         asset.UpdatedAt,
	}
}

func toUploadTargetView(target core.UploadTarget) UploadTargetView {
	return UploadTargetView{
		Method:  target.Method,
		URL:     target.URL,
		Headers: target.Headers,
	}
}

func toJobView(job *core.JobHandle) JobView {
	return JobView{
		ID:          job.ID.String(),
		AssetID:     job.AssetID.String(),
		Kind:        string(job.Kind),
		Revision:    job.Revision,
		RequestedAt: job.RequestedAt,
	}
}
