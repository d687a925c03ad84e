package transport

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

// AssetServiceName is the fully-qualified name of the asset service.
const AssetServiceName = "studio.v1.AssetService"

const (
	AssetServiceCreateAssetProcedure       = "/studio.v1.AssetService/CreateAsset"
	AssetServiceGetAssetProcedure          = "/studio.v1.AssetService/GetAsset"
	AssetServiceListAssetsProcedure        = "/studio.v1.AssetService/ListAssets"
	AssetServiceUpdateAssetProcedure       = "/studio.v1.AssetService/UpdateAsset"
	AssetServiceRemoveAssetProcedure       = "/studio.v1.AssetService/RemoveAsset"
	AssetServiceRevalidateAssetProcedure   = "/studio.v1.AssetService/RevalidateAsset"
	AssetServiceTriggerEnrichmentProcedure = "/studio.v1.AssetService/TriggerEnrichment"
	AssetServiceRestoreThumbnailProcedure  = "/studio.v1.AssetService/RestoreThumbnail"
	AssetServiceUploadThumbnailProcedure   = "/studio.v1.AssetService/UploadThumbnail"
)

// AssetServiceHandler is the server contract of studio.v1.AssetService.
type AssetServiceHandler interface {
	CreateAsset(context.Context, *connect.Request[CreateAssetRequest]) (*connect.Response[CreateAssetResponse], error)
	GetAsset(context.Context, *connect.Request[AssetRequest]) (*connect.Response[AssetResponse], error)
	ListAssets(context.Context, *connect.Request[ListAssetsRequest]) (*connect.Response[ListAssetsResponse], error)
	UpdateAsset(context.Context, *connect.Request[UpdateAssetRequest]) (*connect.Response[AssetResponse], error)
	RemoveAsset(context.Context, *connect.Request[AssetRequest]) (*connect.Response[AssetResponse], error)
	RevalidateAsset(context.Context, *connect.Request[AssetRequest]) (*connect.Response[AssetResponse], error)
	TriggerEnrichment(context.Context, *connect.Request[TriggerEnrichmentRequest]) (*connect.Response[TriggerEnrichmentResponse], error)
	RestoreThumbnail(context.Context, *connect.Request[AssetRequest]) (*connect.Response[AssetResponse], error)
	UploadThumbnail(context.Context, *connect.Request[UploadThumbnailRequest]) (*connect.Response[AssetResponse], error)
}

// NewAssetServiceHandler builds an HTTP handler for every procedure of the
// service, returning the path prefix to mount it on. Messages use the JSON codec.
func NewAssetServiceHandler(svc AssetServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	handlers := map[string]http.Handler{
		AssetServiceCreateAssetProcedure:       connect.NewUnaryHandler(AssetServiceCreateAssetProcedure, svc.CreateAsset, opts...),
		AssetServiceGetAssetProcedure:          connect.NewUnaryHandler(AssetServiceGetAssetProcedure, svc.GetAsset, opts...),
		AssetServiceListAssetsProcedure:        connect.NewUnaryHandler(AssetServiceListAssetsProcedure, svc.ListAssets, opts...),
		AssetServiceUpdateAssetProcedure:       connect.NewUnaryHandler(AssetServiceUpdateAssetProcedure, svc.UpdateAsset, opts...),
		AssetServiceRemoveAssetProcedure:       connect.NewUnaryHandler(AssetServiceRemoveAssetProcedure, svc.RemoveAsset, opts...),
		AssetServiceRevalidateAssetProcedure:   connect.NewUnaryHandler(AssetServiceRevalidateAssetProcedure, svc.RevalidateAsset, opts...),
		AssetServiceTriggerEnrichmentProcedure: connect.NewUnaryHandler(AssetServiceTriggerEnrichmentProcedure, svc.TriggerEnrichment, opts...),
		AssetServiceRestoreThumbnailProcedure:  connect.NewUnaryHandler(AssetServiceRestoreThumbnailProcedure, svc.RestoreThumbnail, opts...),
		AssetServiceUploadThumbnailProcedure:   connect.NewUnaryHandler(AssetServiceUploadThumbnailProcedure, svc.UploadThumbnail, opts...),
	}

	return "/" + AssetServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := handlers[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}
