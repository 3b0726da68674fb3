package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Amount is a numeric catalog value (price, margin) that may be absent or invalid.
type Amount struct {
	Value float64
	Valid bool
}

// NewAmount returns a valid amount.
func NewAmount(v float64) Amount { return Amount{Value: v, Valid: true} }

// Usable reports whether the amount holds a finite number.
func (a Amount) Usable() bool {
	return a.Valid && !math.IsNaN(a.Value) && !math.IsInf(a.Value, 0)
}

// UnmarshalJSON accepts numbers, numeric strings and null. Any other shape
// yields an invalid amount instead of an error so a single odd field never
// rejects the record that carries it.
func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = Amount{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*a = NewAmount(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*a = NewAmount(v)
		}
	}
	return nil
}

// MarshalJSON writes null for unusable amounts.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Usable() {
		return []byte("null"), nil
	}
	return json.Marshal(a.Value)
}

// Product is a catalog item returned by search. Values are never mutated after parse.
type Product struct {
	ID          string
	Name        string
	Category    string
	Description string
	// Ingredients is ';'-separated.
	Ingredients string
	// Tags is '|'-separated.
	Tags   string
	Price  Amount
	Margin Amount
}

// ResultKind discriminates SearchResult variants.
type ResultKind string

const (
	KindQuestion       ResultKind = "QUESTION"
	KindRecommendation ResultKind = "RECOMMENDATION"
)

// SearchResult is the classified outcome of one query: *Answer or *Recommendation.
type SearchResult interface {
	Kind() ResultKind
	// FollowUp returns the backend-suggested next query, if any.
	FollowUp() (string, bool)
}

// Answer is a direct answer to a question.
type Answer struct {
	Text              string
	SupportingContext []string
	// RelatedProducts is the secondary product channel of question responses.
	RelatedProducts []Product
	FollowUpQuestion string
}

func (a *Answer) Kind() ResultKind { return KindQuestion }

func (a *Answer) FollowUp() (string, bool) { return followUp(a.FollowUpQuestion) }

// Recommendation is a relevance-ranked product list.
type Recommendation struct {
	Products []Product
	// Note is the optional explanatory text sent alongside recommendations.
	Note             string
	FollowUpQuestion string
}

func (r *Recommendation) Kind() ResultKind { return KindRecommendation }

func (r *Recommendation) FollowUp() (string, bool) { return followUp(r.FollowUpQuestion) }

func followUp(s string) (string, bool) {
	if strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// Session tracks conversational continuity. An empty ID means no session yet.
type Session struct {
	ID        string
	TurnCount int
}

// Active reports whether the backend has issued a session token.
func (s Session) Active() bool { return s.ID != "" }
