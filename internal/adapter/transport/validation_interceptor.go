package transport

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"

	"github.com/lexand-dev/vid-skool/internal/core"
)

// NewValidationInterceptor rejects requests whose message fails its own Validate method.
func NewValidationInterceptor() connect.Interceptor {
	return connect.UnaryInterceptorFunc(func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if msg, ok := req.Any().(Validator); ok {
				if err := msg.Validate(); err != nil {
					if errors.Is(err, core.ErrValidation) {
						return nil, err
					}
					return nil, fmt.Errorf("%w: %s", core.ErrValidation, err.Error())
				}
			}
			return next(ctx, req)
		}
	})
}
