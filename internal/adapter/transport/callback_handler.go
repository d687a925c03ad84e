package transport

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lexand-dev/vid-skool/internal/core"
	"github.com/lexand-dev/vid-skool/internal/usecase"
)

// SignatureHeader carries "t=<unix seconds>,v1=<hex hmac-sha256 of t.body>".
const SignatureHeader = "X-Webhook-Signature"

const maxCallbackBytes = 1 << 20

var errBadSignature = errors.New("invalid webhook signature")

// CallbackIngester applies decoded callbacks.
type CallbackIngester interface {
	Ingest(ctx context.Context, ev core.Event) (usecase.IngestResult, error)
}

// CallbackHandlerConfig configures webhook verification. An empty Secret
// disables signature checks.
type CallbackHandlerConfig struct {
	Secret    string
	Tolerance time.Duration
}

// CallbackHandler is the single HTTP entry point for provider and enrichment callbacks.
type CallbackHandler struct {
	ingester CallbackIngester
	cfg      CallbackHandlerConfig
	logger   zerolog.Logger
	now      func() time.Time
}

// NewCallbackHandler constructs the webhook handler.
func NewCallbackHandler(ingester CallbackIngester, cfg CallbackHandlerConfig, logger zerolog.Logger) *CallbackHandler {
	return &CallbackHandler{
		ingester: ingester,
		cfg:      cfg,
		logger:   logger.With().Str("component", "callback_handler").Logger(),
		now:      time.Now,
	}
}

// WithClock allows tests to override the clock used for the signature window.
func (h *CallbackHandler) WithClock(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBytes+1))
	if err != nil {
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}
	if len(body) > maxCallbackBytes {
		http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
		return
	}

	if err := h.verify(r.Header.Get(SignatureHeader), body); err != nil {
		h.logger.Warn().Err(err).Msg("callback rejected")
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	ev, err := decodeCallback(body)
	if err != nil {
		h.logger.Warn().Err(err).Msg("callback malformed")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	log := h.logger.With().Str("event_kind", string(ev.Kind())).Logger()
	if scoped, ok := ev.(core.ProviderScoped); ok {
		header := scoped.Header()
		log = log.With().Str("provider_ref", header.ProviderRef).Int64("sequence", header.Sequence).Logger()
	}

	result, err := h.ingester.Ingest(log.WithContext(r.Context()), ev)
	switch {
	case errors.Is(err, core.ErrMalformedCallback):
		log.Warn().Err(err).Msg("callback malformed")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		log.Error().Err(err).Msg("callback failed")
		http.Error(w, "callback failed", http.StatusInternalServerError)
		return
	}

	if result.Applied {
		log.Debug().Msg("callback applied")
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CallbackHandler) verify(header string, body []byte) error {
	if h.cfg.Secret == "" {
		return nil
	}

	var (
		timestamp string
		digests   []string
	)
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			digests = append(digests, value)
		}
	}
	if timestamp == "" || len(digests) == 0 {
		return fmt.Errorf("%w: missing timestamp or digest", errBadSignature)
	}

	unix, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad timestamp", errBadSignature)
	}
	if h.cfg.Tolerance > 0 {
		skew := h.now().Sub(time.Unix(unix, 0))
		if math.Abs(float64(skew)) > float64(h.cfg.Tolerance) {
			return fmt.Errorf("%w: timestamp outside tolerance", errBadSignature)
		}
	}

	expected := SignCallback(h.cfg.Secret, timestamp, body)
	for _, digest := range digests {
		if hmac.Equal([]byte(digest), []byte(expected)) {
			return nil
		}
	}
	return errBadSignature
}

// SignCallback returns the hex digest expected in the v1 component of the signature header.
func SignCallback(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

type callbackEnvelope struct {
	ProviderRef string       `json:"providerRef"`
	EventKind   string       `json:"eventKind"`
	Sequence    int64        `json:"sequence"`
	Data        callbackData `json:"data"`
}

type callbackData struct {
	AssetRef    string  `json:"assetRef"`
	PlaybackRef string  `json:"playbackRef"`
	CaptionRef  string  `json:"captionRef"`
	Duration    float64 `json:"duration"`
	Error       string  `json:"error"`

	AssetID    string `json:"assetId"`
	Result     string `json:"result"`
	JobVersion int64  `json:"jobVersion"`
}

// decodeCallback turns the wire envelope into a typed event.
func decodeCallback(body []byte) (core.Event, error) {
	var env callbackEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrMalformedCallback, err.Error())
	}

	header := core.ProviderEvent{ProviderRef: strings.TrimSpace(env.ProviderRef), Sequence: env.Sequence}
	var ev core.Event
	switch core.EventKind(env.EventKind) {
	case core.EventUploadAccepted:
		ev = core.UploadAccepted{ProviderEvent: header, AssetRef: env.Data.AssetRef}
	case core.EventAssetReady:
		ev = core.AssetReady{
			ProviderEvent: header,
			AssetRef:      env.Data.AssetRef,
			PlaybackRef:   env.Data.PlaybackRef,
			Duration:      time.Duration(env.Data.Duration * float64(time.Second)),
		}
	case core.EventAssetErrored:
		ev = core.AssetErrored{ProviderEvent: header, AssetRef: env.Data.AssetRef, Reason: env.Data.Error}
	case core.EventCaptionReady:
		ev = core.CaptionReady{ProviderEvent: header, CaptionRef: env.Data.CaptionRef}
	case core.EventCaptionErrored:
		ev = core.CaptionErrored{ProviderEvent: header, CaptionRef: env.Data.CaptionRef, Reason: env.Data.Error}
	case core.EventEnrichmentTitle, core.EventEnrichmentDescription, core.EventEnrichmentThumbnail:
		kind := strings.TrimSuffix(strings.TrimPrefix(env.EventKind, "enrichment."), ".done")
		assetID, err := uuid.Parse(env.Data.AssetID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid assetId %q", core.ErrMalformedCallback, env.Data.AssetID)
		}
		ev = core.EnrichmentDone{
			AssetID:    assetID,
			JobKind:    core.EnrichmentKind(kind),
			Result:     env.Data.Result,
			JobVersion: env.Data.JobVersion,
		}
	default:
		return nil, fmt.Errorf("%w: unknown eventKind %q", core.ErrMalformedCallback, env.EventKind)
	}

	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return ev, nil
}
