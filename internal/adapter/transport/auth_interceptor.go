package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"connectrpc.com/connect"
	"github.com/golang-jwt/jwt/v4"

	"github.com/lexand-dev/vid-skool/internal/core"
)

type ownerKey struct{}

// OwnerFromContext returns the authenticated caller, or "" when absent.
func OwnerFromContext(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}

// WithOwner attaches the caller identity to ctx.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey{}, ownerID)
}

// TokenVerifier validates HS256 bearer tokens and yields their subject.
type TokenVerifier struct {
	secret []byte
}

// NewTokenVerifier constructs a verifier for tokens signed with secret.
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// Subject parses the token and returns its subject claim.
func (v *TokenVerifier) Subject(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s", core.ErrUnauthenticated, err.Error())
	}
	if !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return "", fmt.Errorf("%w: token has no subject", core.ErrUnauthenticated)
	}
	return claims.Subject, nil
}

// Sign issues a token for subject. Used by tooling and tests.
func (v *TokenVerifier) Sign(subject string, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = subject
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// NewAuthInterceptor resolves the bearer token into the caller identity.
func NewAuthInterceptor(verifier *TokenVerifier) connect.Interceptor {
	return connect.UnaryInterceptorFunc(func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			token, err := bearerToken(req.Header().Get("Authorization"))
			if err != nil {
				return nil, err
			}
			subject, err := verifier.Subject(token)
			if err != nil {
				return nil, err
			}
			return next(WithOwner(ctx, subject), req)
		}
	})
}

func bearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: %w", core.ErrUnauthenticated, errMissingBearer)
	}
	return strings.TrimSpace(token), nil
}

var errMissingBearer = errors.New("missing bearer token")
