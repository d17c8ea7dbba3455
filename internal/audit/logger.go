// Package audit writes security-relevant events as structured zerolog entries tagged audit=security.
package audit

import (
	"context"
	"net"
	"net/http"
	"sort"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventAuthFailure       EventType = "auth_failure"
	EventUserRegister      EventType = "user_register"
	EventInvitationIssue   EventType = "invitation_issue"
	EventInvitationReject  EventType = "invitation_reject"
	EventPairCreate        EventType = "pair_create"
	EventReminderSent      EventType = "reminder_sent"
	EventReminderThrottled EventType = "reminder_throttled"
	EventRateLimitExceed   EventType = "rate_limit_exceeded"
)

type Event struct {
	Type      EventType
	UserID    string
	PairID    string
	IP        string
	UserAgent string
	Details   map[string]any
}

// Logger is the destination for audit entries; tests swap it.
var Logger = &log.Logger

func Log(ctx context.Context, event Event) {
	entry := Logger.Info().
		Str("audit", "security").
		Str("eventType", string(event.Type))

	if reqID := chimiddleware.GetReqID(ctx); reqID != "" {
		entry = entry.Str("requestId", reqID)
	}
	if event.UserID != "" {
		entry = entry.Str("userId", event.UserID)
	}
	if event.PairID != "" {
		entry = entry.Str("pairId", event.PairID)
	}
	if event.IP != "" {
		entry = entry.Str("ip", event.IP)
	}
	if event.UserAgent != "" {
		entry = entry.Str("userAgent", event.UserAgent)
	}

	keys := make([]string, 0, len(event.Details))
	for k := range event.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		entry = addField(entry, k, event.Details[k])
	}

	entry.Msg("security audit event")
}

func addField(e *zerolog.Event, key string, value any) *zerolog.Event {
	switch v := value.(type) {
	case string:
		return e.Str(key, v)
	case int:
		return e.Int(key, v)
	case int64:
		return e.Int64(key, v)
	case bool:
		return e.Bool(key, v)
	case error:
		return e.AnErr(key, v)
	default:
		return e.Interface(key, v)
	}
}

// LogFromRequest fills IP and user agent from r. RemoteAddr is expected to be
// normalized by chi's RealIP middleware upstream.
func LogFromRequest(r *http.Request, event Event) {
	event.IP = clientIP(r)
	event.UserAgent = r.UserAgent()
	Log(r.Context(), event)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
