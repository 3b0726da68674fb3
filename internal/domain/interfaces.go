package domain

import "context"

// SearchBackend issues search requests to the backend service.
// Implementations return *TransportError, *ServerError or *MalformedResponseError.
type SearchBackend interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// SessionInspector reads backend-side session information.
type SessionInspector interface {
	SessionInfo(ctx context.Context, sessionID string) (*SessionInfo, error)
}
