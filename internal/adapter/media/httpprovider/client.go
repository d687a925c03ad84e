// Package httpprovider talks to a Mux-compatible video API over HTTP.
package httpprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lexand-dev/vid-skool/internal/core"
)

const defaultThumbnailBase = "https://image.mux.com"

// HTTPDoer describes the HTTP client used by the gateway.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures the gateway.
type Options struct {
	BaseURL       string
	TokenID       string
	TokenSecret   string
	ThumbnailBase string
	Timeout       time.Duration
}

// Client implements core.ProviderGateway.
type Client struct {
	baseURL       string
	tokenID       string
	tokenSecret   string
	thumbnailBase string
	client        HTTPDoer
}

// NewClient constructs a gateway. A nil doer gets an http.Client with the
// configured timeout.
func NewClient(opts Options, doer HTTPDoer) *Client {
	if doer == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		doer = &http.Client{Timeout: timeout}
	}
	thumbnailBase := strings.TrimRight(strings.TrimSpace(opts.ThumbnailBase), "/")
	if thumbnailBase == "" {
		thumbnailBase = defaultThumbnailBase
	}
	return &Client{
		baseURL:       strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		tokenID:       strings.TrimSpace(opts.TokenID),
		tokenSecret:   strings.TrimSpace(opts.TokenSecret),
		thumbnailBase: thumbnailBase,
		client:        doer,
	}
}

var _ core.ProviderGateway = (*Client)(nil)

type createUploadRequest struct {
	CORSOrigin       string           `json:"cors_origin,omitempty"`
	NewAssetSettings newAssetSettings `json:"new_asset_settings"`
}

type newAssetSettings struct {
	Passthrough      string            `json:"passthrough"`
	PlaybackPolicy   []string          `json:"playback_policy"`
	StaticRenditions []staticRendition `json:"static_renditions,omitempty"`
	InputSettings    []inputSetting    `json:"input,omitempty"`
}

type staticRendition struct {
	Resolution string `json:"resolution"`
}

type inputSetting struct {
	GeneratedSubtitles []generatedSubtitle `json:"generated_subtitles,omitempty"`
}

type generatedSubtitle struct {
	LanguageCode string `json:"language_code"`
	Name         string `json:"name"`
}

type createUploadResponse struct {
	Data struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	} `json:"data"`
}

// CreateUpload requests a direct upload slot tagged with the owner.
func (c *Client) CreateUpload(ctx context.Context, ownerID string, opts core.UploadOptions) (*core.ProviderUpload, error) {
	policy := "signed"
	if opts.PublicPlayback {
		policy = "public"
	}
	body := createUploadRequest{
		CORSOrigin: opts.CORSOrigin,
		NewAssetSettings: newAssetSettings{
			Passthrough:      ownerID,
			PlaybackPolicy:   []string{policy},
			StaticRenditions: []staticRendition{{Resolution: "highest"}},
			InputSettings: []inputSetting{{
				GeneratedSubtitles: []generatedSubtitle{{LanguageCode: "en", Name: "English"}},
			}},
		},
	}

	var out createUploadResponse
	if err := c.do(ctx, http.MethodPost, "/video/v1/uploads", body, &out); err != nil {
		return nil, fmt.Errorf("create upload: %w", err)
	}
	if out.Data.ID == "" || out.Data.URL == "" {
		return nil, fmt.Errorf("create upload: response missing id or url")
	}

	return &core.ProviderUpload{
		JobID: out.Data.ID,
		Target: core.UploadTarget{
			Method: http.MethodPut,
			URL:    out.Data.URL,
		},
	}, nil
}

// RequestReprocess asks the provider to run the asset through processing again.
func (c *Client) RequestReprocess(ctx context.Context, assetRef string) error {
	if strings.TrimSpace(assetRef) == "" {
		return fmt.Errorf("request reprocess: asset ref is required")
	}
	path := "/video/v1/assets/" + url.PathEscape(assetRef) + "/reprocess"
	if err := c.do(ctx, http.MethodPost, path, struct{}{}, nil); err != nil {
		return fmt.Errorf("request reprocess: %w", err)
	}
	return nil
}

// ThumbnailURL returns the provider-hosted still for a playback ref.
func (c *Client) ThumbnailURL(playbackRef string) string {
	return fmt.Sprintf("%s/%s/thumbnail.jpg", c.thumbnailBase, url.PathEscape(playbackRef))
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.tokenID, c.tokenSecret)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
