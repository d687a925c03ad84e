package transport

import (
	"context"
	"errors"
	"testing"

	"connectrpc.com/connect"

	"github.com/lexand-dev/vid-skool/internal/core"
)

func TestValidationInterceptor_AllowsValidRequest(t *testing.T) {
	interceptor := NewValidationInterceptor()
	nextCalled := false

	unary := interceptor.WrapUnary(func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		nextCalled = true
		return connect.NewResponse(&AssetResponse{}), nil
	})

	req := connect.NewRequest(&AssetRequest{ID: "8d6b4f6e-1c1f-4a8e-9d59-2f9e6f7a1b2c"})
	if _, err := unary(context.Background(), req); err != nil {
		t.Fatalf("unary() error = %v", err)
	}
	if !nextCalled {
		t.Fatal("expected next to be called")
	}
}

func TestValidationInterceptor_InvalidRequestReturnsValidationError(t *testing.T) {
	interceptor := NewValidationInterceptor()
	nextCalled := false

	unary := interceptor.WrapUnary(func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		nextCalled = true
		return connect.NewResponse(&AssetResponse{}), nil
	})

	visibility := "friends-only"
	req := connect.NewRequest(&UpdateAssetRequest{ID: "not-a-uuid", Visibility: &visibility})

	_, err := unary(context.Background(), req)
	if err == nil {
		t.Fatal("expected validation error for invalid request")
	}
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected error to wrap core.ErrValidation, got %v", err)
	}
	if nextCalled {
		t.Fatal("expected interceptor to block invalid request before calling next")
	}
}

func TestValidationInterceptor_SkipsMessagesWithoutValidate(t *testing.T) {
	interceptor := NewValidationInterceptor()
	nextCalled := false

	unary := interceptor.WrapUnary(func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		nextCalled = true
		return connect.NewResponse(&AssetResponse{}), nil
	})

	if _, err := unary(context.Background(), connect.NewRequest(&AssetResponse{})); err != nil {
		t.Fatalf("unary() error = %v", err)
	}
	if !nextCalled {
		t.Fatal("expected next to be called")
	}
}

func TestRequestValidate(t *testing.T) {
	id := "8d6b4f6e-1c1f-4a8e-9d59-2f9e6f7a1b2c"
	tests := []struct {
		name    string
		msg     Validator
		wantErr bool
	}{
		{name: "list negative page size", msg: ListAssetsRequest{PageSize: -1}, wantErr: true},
		{name: "list zero page size", msg: ListAssetsRequest{}},
		{name: "trigger unknown kind", msg: TriggerEnrichmentRequest{ID: id, Kind: "summary"}, wantErr: true},
		{name: "trigger title", msg: TriggerEnrichmentRequest{ID: id, Kind: "title"}},
		{name: "upload without data", msg: UploadThumbnailRequest{ID: id, ContentType: "image/png"}, wantErr: true},
		{name: "upload without content type", msg: UploadThumbnailRequest{ID: id, Data: []byte("x")}, wantErr: true},
		{name: "upload ok", msg: UploadThumbnailRequest{ID: id, ContentType: "image/png", Data: []byte("x")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr && !errors.Is(err, core.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error %v", err)
			}
		})
	}
}
