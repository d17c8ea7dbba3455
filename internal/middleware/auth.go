package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/pulseofpair/pairsync/internal/audit"
	apperrors "github.com/pulseofpair/pairsync/internal/errors"
	"github.com/pulseofpair/pairsync/internal/httputil"
	"github.com/pulseofpair/pairsync/internal/service"
)

type contextKey string

const CallerContextKey contextKey = "caller"

const (
	InitDataHeader = "X-Telegram-Init-Data"
	// InitDataQueryParam serves clients that cannot set headers, such as EventSource.
	InitDataQueryParam = "initData"
	authScheme         = "tma "
)

// CallerResolver turns a raw launch credential into an authenticated caller.
type CallerResolver interface {
	ResolveCaller(ctx context.Context, credential string) (*service.Caller, error)
}

func GetCaller(ctx context.Context) *service.Caller {
	if caller, ok := ctx.Value(CallerContextKey).(*service.Caller); ok {
		return caller
	}
	return nil
}

// WithCaller stores caller in ctx.
func WithCaller(ctx context.Context, caller *service.Caller) context.Context {
	return context.WithValue(ctx, CallerContextKey, caller)
}

type AuthMiddleware struct {
	resolver CallerResolver
}

func NewAuthMiddleware(resolver CallerResolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential := extractInitData(r)
		if credential == "" {
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventAuthFailure,
				Details: map[string]interface{}{"reason": "missing"},
			})
			httputil.WriteError(w, apperrors.Unauthenticated("Missing Telegram init data"))
			return
		}

		caller, err := m.resolver.ResolveCaller(r.Context(), credential)
		if err != nil {
			if apperrors.GetCode(err) == apperrors.ErrCodeUnauthenticated {
				log.Warn().Err(err).Msg("auth middleware: invalid init data")
				audit.LogFromRequest(r, audit.Event{
					Type:    audit.EventAuthFailure,
					Details: map[string]interface{}{"reason": "invalid"},
				})
			}
			httputil.WriteError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}

func extractInitData(r *http.Request) string {
	if v := r.Header.Get(InitDataHeader); v != "" {
		return v
	}

	authHeader := r.Header.Get("Authorization")
	if len(authHeader) > len(authScheme) && strings.EqualFold(authHeader[:len(authScheme)], authScheme) {
		return strings.TrimSpace(authHeader[len(authScheme):])
	}

	return r.URL.Query().Get(InitDataQueryParam)
}
