package server

import (
	"net/http"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/lexand-dev/vid-skool/internal/adapter/transport"
)

// WebhookPath receives provider and enrichment callbacks.
const WebhookPath = "/webhooks/events"

// NewHTTPHandler wires the Connect handlers and the webhook into a router ready for serving.
func NewHTTPHandler(
	logger zerolog.Logger,
	assets *transport.AssetHandler,
	callbacks *transport.CallbackHandler,
	verifier *transport.TokenVerifier,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, transport.AccessLog(logger), middleware.Recoverer)

	path, svc := transport.NewAssetServiceHandler(assets, connect.WithInterceptors(
		transport.NewErrorInterceptor(),
		transport.NewAuthInterceptor(verifier),
		transport.NewValidationInterceptor(),
	))
	r.Handle(path+"*", svc)

	r.Method(http.MethodPost, WebhookPath, callbacks)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
