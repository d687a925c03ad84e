package transport

import (
	"errors"
	"fmt"
	"testing"

	"connectrpc.com/connect"

	"github.com/lexand-dev/vid-skool/internal/core"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		err  error
		want connect.Code
	}{
		{fmt.Errorf("%w: bad title", core.ErrValidation), connect.CodeInvalidArgument},
		{core.ErrInvalidPageToken, connect.CodeInvalidArgument},
		{core.ErrUnauthenticated, connect.CodeUnauthenticated},
		{fmt.Errorf("%w: asset x", core.ErrNotFound), connect.CodeNotFound},
		{fmt.Errorf("%w: no playback", core.ErrPrecondition), connect.CodeFailedPrecondition},
		{core.ErrConflict, connect.CodeAlreadyExists},
		{fmt.Errorf("%w: provider down", core.ErrUpstream), connect.CodeUnavailable},
		{errors.New("boom"), connect.CodeInternal},
		{connect.NewError(connect.CodePermissionDenied, errors.New("nope")), connect.CodePermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := connect.CodeOf(mapError(tt.err)); got != tt.want {
				t.Fatalf("mapError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
