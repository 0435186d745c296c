package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/fjod/go_bookstore/internal/domain"
)

// CookieName is the cookie that carries the access token for browser clients.
const CookieName = "token"

type identityKey struct{}

func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// FromContext returns the caller identity, or an anonymous identity.
func FromContext(ctx context.Context) domain.Identity {
	if identity, ok := ctx.Value(identityKey{}).(domain.Identity); ok {
		return identity
	}
	return domain.Identity{}
}

// TokenFromRequest extracts a bearer token from the Authorization header,
// falling back to the token cookie.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		fields := strings.Fields(header)
		if len(fields) == 2 && strings.EqualFold(fields[0], "bearer") {
			return fields[1]
		}
		return ""
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}
