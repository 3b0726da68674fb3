package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// SearchRequest is the body POSTed to the search endpoint.
type SearchRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

// SearchResponse is the decoded success body of the search endpoint.
// Products stay raw so each record can be validated on its own.
type SearchResponse struct {
	QueryType           string            `json:"query_type"`
	Answer              *string           `json:"answer,omitempty"`
	Products            []json.RawMessage `json:"products,omitempty"`
	FollowUpQuestion    *string           `json:"follow_up_question,omitempty"`
	Context             []string          `json:"context,omitempty"`
	SessionID           string            `json:"session_id"`
	ConversationContext *string           `json:"conversation_context,omitempty"`
}

// SessionInfo is the backend's public view of a session.
type SessionInfo struct {
	SessionID         string         `json:"session_id"`
	ConversationCount int            `json:"conversation_count"`
	UserPreferences   map[string]any `json:"user_preferences"`
	CreatedAt         Timestamp      `json:"created_at"`
	LastActivity      Timestamp      `json:"last_activity"`
}

// naiveLayouts are accepted for timestamps sent without a zone; they are read as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// Timestamp decodes RFC 3339 times as well as zone-less ISO 8601 times.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if v, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = v
		return nil
	}
	for _, layout := range naiveLayouts {
		if v, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t.Time = v
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}
