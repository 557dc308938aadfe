package api

import (
	"log/slog"
	"net/http"

	"github.com/hyperengineering/scriptdesk/internal/types"
)

// ownerFromQuery builds the caller's owner key from query parameters.
// memberstackId is accepted as the legacy name for memberId.
func ownerFromQuery(r *http.Request) types.Owner {
	q := r.URL.Query()
	return types.NewOwner(q.Get("teamId"), q.Get("memberId"), q.Get("memberstackId"))
}

// requestLogger returns the default logger annotated with the request
// identity. Owner identifiers are included; script content never is.
func requestLogger(r *http.Request, owner types.Owner) *slog.Logger {
	l := slog.Default().With(
		"request_id", GetRequestID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
	)
	if owner.TeamID != "" {
		l = l.With("team_id", owner.TeamID)
	}
	if owner.MemberID != "" {
		l = l.With("member_id", owner.MemberID)
	}
	return l
}
