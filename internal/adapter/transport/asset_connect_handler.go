package transport

import (
	"bytes"
	"context"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/lexand-dev/vid-skool/internal/core"
)

// AssetHandler implements the Connect service for asset operations.
type AssetHandler struct {
	service core.AssetService
}

// NewAssetHandler constructs a new Asset handler backed by the provided service.
func NewAssetHandler(service core.AssetService) *AssetHandler {
	return &AssetHandler{service: service}
}

var _ AssetServiceHandler = (*AssetHandler)(nil)

// CreateAsset requests an upload slot from the provider and records the asset.
func (h *AssetHandler) CreateAsset(ctx context.Context, _ *connect.Request[CreateAssetRequest]) (*connect.Response[CreateAssetResponse], error) {
	result, err := h.service.CreateAsset(ctx, OwnerFromContext(ctx))
	if err != nil {
		return nil, err
	}

	return connect.NewResponse(&CreateAssetResponse{
		Asset:  toAssetView(&result.Asset),
		Upload: toUploadTargetView(result.Target),
	}), nil
}

// GetAsset returns a single owned asset.
func (h *AssetHandler) GetAsset(ctx context.Context, req *connect.Request[AssetRequest]) (*connect.Response[AssetResponse], error) {
	return h.withAsset(ctx, req.Msg.ID, h.service.GetAsset)
}

// ListAssets pages through the caller's assets, newest first.
func (h *AssetHandler) ListAssets(ctx context.Context, req *connect.Request[ListAssetsRequest]) (*connect.Response[ListAssetsResponse], error) {
	assets, next, err := h.service.ListAssets(ctx, core.AssetListFilter{
		OwnerID:   OwnerFromContext(ctx),
		PageSize:  req.Msg.PageSize,
		PageToken: req.Msg.PageToken,
	})
	if err != nil {
		return nil, err
	}

	views := make([]AssetView, 0, len(assets))
	for i := range assets {
		views = append(views, toAssetView(&assets[i]))
	}
	return connect.NewResponse(&ListAssetsResponse{Assets: views, NextPageToken: next}), nil
}

// UpdateAsset applies the user-editable fields present in the request.
func (h *AssetHandler) UpdateAsset(ctx context.Context, req *connect.Request[UpdateAssetRequest]) (*connect.Response[AssetResponse], error) {
	id, err := parseAssetID(req.Msg.ID)
	if err != nil {
		return nil, err
	}
	patch, err := req.Msg.patch()
	if err != nil {
		return nil, err
	}

	asset, err := h.service.UpdateAsset(ctx, id, OwnerFromContext(ctx), patch)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&AssetResponse{Asset: toAssetView(asset)}), nil
}

// RemoveAsset deletes the asset and returns its last state.
func (h *AssetHandler) RemoveAsset(ctx context.Context, req *connect.Request[AssetRequest]) (*connect.Response[AssetResponse], error) {
	return h.withAsset(ctx, req.Msg.ID, h.service.RemoveAsset)
}

// RevalidateAsset asks the provider to re-run processing for an errored asset.
func (h *AssetHandler) RevalidateAsset(ctx context.Context, req *connect.Request[AssetRequest]) (*connect.Response[AssetResponse], error) {
	return h.withAsset(ctx, req.Msg.ID, h.service.RevalidateAsset)
}

// TriggerEnrichment dispatches a background job and returns its handle immediately.
func (h *AssetHandler) TriggerEnrichment(ctx context.Context, req *connect.Request[TriggerEnrichmentRequest]) (*connect.Response[TriggerEnrichmentResponse], error) {
	id, err := parseAssetID(req.Msg.ID)
	if err != nil {
		return nil, err
	}
	kind, err := core.ParseEnrichmentKind(req.Msg.Kind)
	if err != nil {
		return nil, err
	}

	job, err := h.service.TriggerEnrichment(ctx, id, OwnerFromContext(ctx), kind, core.EnrichmentParams{Prompt: req.Msg.Prompt})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&TriggerEnrichmentResponse{Job: toJobView(job)}), nil
}

// RestoreThumbnail replaces the thumbnail with the provider's fallback image.
func (h *AssetHandler) RestoreThumbnail(ctx context.Context, req *connect.Request[AssetRequest]) (*connect.Response[AssetResponse], error) {
	return h.withAsset(ctx, req.Msg.ID, h.service.RestoreThumbnail)
}

// UploadThumbnail replaces the thumbnail with caller-supplied bytes.
func (h *AssetHandler) UploadThumbnail(ctx context.Context, req *connect.Request[UploadThumbnailRequest]) (*connect.Response[AssetResponse], error) {
	id, err := parseAssetID(req.Msg.ID)
	if err != nil {
		return nil, err
	}

	asset, err := h.service.UploadThumbnail(ctx, id, OwnerFromContext(ctx), core.ObjectUpload{
		Body:        bytes.NewReader(req.Msg.Data),
		Size:        int64(len(req.Msg.Data)),
		ContentType: req.Msg.ContentType,
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&AssetResponse{Asset: toAssetView(asset)}), nil
}

type ownedAssetCall func(ctx context.Context, id uuid.UUID, ownerID string) (*core.Asset, error)

func (h *AssetHandler) withAsset(ctx context.Context, rawID string, call ownedAssetCall) (*connect.Response[AssetResponse], error) {
	id, err := parseAssetID(rawID)
	if err != nil {
		return nil, err
	}

	asset, err := call(ctx, id, OwnerFromContext(ctx))
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&AssetResponse{Asset: toAssetView(asset)}), nil
}
