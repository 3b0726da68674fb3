package parser

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopsearch/internal/domain"
)

func decode(t *testing.T, body string) *domain.SearchResponse {
	t.Helper()
	var resp domain.SearchResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	return &resp
}

func TestParse_QuestionKeepsContextOrder(t *testing.T) {
	resp := decode(t, `{
		"query_type": "QUESTION",
		"answer": "Use SPF daily",
		"context": ["src1", "src2", "src3", "src4"],
		"session_id": "abc"
	}`)

	parsed, err := New().Parse(resp)
	require.NoError(t, err)

	answer, ok := parsed.Result.(*domain.Answer)
	require.True(t, ok, "expected *domain.Answer, got %T", parsed.Result)
	assert.Equal(t, "Use SPF daily", answer.Text)
	assert.Equal(t, []string{"src1", "src2", "src3", "src4"}, answer.SupportingContext)
	assert.Equal(t, "abc", parsed.SessionID)
	_, has := answer.FollowUp()
	assert.False(t, has)
}

func TestParse_QuestionCarriesRelatedProducts(t *testing.T) {
	resp := decode(t, `{
		"query_type": "QUESTION",
		"answer": "Niacinamide helps.",
		"products": [{"product_id": "P1", "name": "Serum", "price (USD)": 12}],
		"session_id": "s"
	}`)

	parsed, err := New().Parse(resp)
	require.NoError(t, err)
	answer := parsed.Result.(*domain.Answer)
	require.Len(t, answer.RelatedProducts, 1)
	assert.Equal(t, "P1", answer.RelatedProducts[0].ID)
	assert.Equal(t, domain.KindQuestion, parsed.Result.Kind())
}

func TestParse_Recommendation(t *testing.T) {
	resp := decode(t, `{
		"query_type": "RECOMMENDATION",
		"answer": "Here are some picks.",
		"products": [
			{"product_id": "P1", "name": "Cleanser", "category": "Cleanser",
			 "description": "Gentle", "top_ingredients": "Water; Glycerin",
			 "tags": "gentle|daily", "price (USD)": 19.5, "margin (%)": 40},
			{"product_id": "P2", "name": "Toner", "price (USD)": null, "margin (%)": "12.5"}
		],
		"follow_up_question": "What is your skin type?",
		"conversation_context": "Previous: dry skin",
		"session_id": "tok"
	}`)

	parsed, err := New().Parse(resp)
	require.NoError(t, err)

	rec, ok := parsed.Result.(*domain.Recommendation)
	require.True(t, ok)
	require.Len(t, rec.Products, 2)
	assert.Equal(t, "Here are some picks.", rec.Note)
	assert.Equal(t, domain.NewAmount(19.5), rec.Products[0].Price)
	assert.Equal(t, "Water; Glycerin", rec.Products[0].Ingredients)
	assert.False(t, rec.Products[1].Price.Valid)
	assert.Equal(t, domain.NewAmount(12.5), rec.Products[1].Margin)
	assert.Equal(t, "Previous: dry skin", parsed.ConversationContext)
	assert.Zero(t, parsed.Dropped)

	q, has := rec.FollowUp()
	assert.True(t, has)
	assert.Equal(t, "What is your skin type?", q)
}

func TestParse_DropsInvalidProducts(t *testing.T) {
	resp := decode(t, `{
		"query_type": "RECOMMENDATION",
		"products": [
			{"product_id": "P1", "name": "A"},
			{"name": "missing id"},
			{"product_id": "P3", "name": "C"}
		],
		"session_id": "tok"
	}`)

	parsed, err := New().Parse(resp)
	require.NoError(t, err)
	rec := parsed.Result.(*domain.Recommendation)
	require.Len(t, rec.Products, 2)
	assert.Equal(t, "P1", rec.Products[0].ID)
	assert.Equal(t, "P3", rec.Products[1].ID)
	assert.Equal(t, 1, parsed.Dropped)
}

func TestParse_DropsUndecodableProducts(t *testing.T) {
	resp := decode(t, `{
		"query_type": "RECOMMENDATION",
		"products": [null, {"product_id": 7, "name": "numeric id"}, {"product_id": "P", "name": ""}, {"product_id": "ok", "name": "ok"}],
		"session_id": "tok"
	}`)

	parsed, err := New().Parse(resp)
	require.NoError(t, err)
	rec := parsed.Result.(*domain.Recommendation)
	require.Len(t, rec.Products, 1)
	assert.Equal(t, 3, parsed.Dropped)
}

func TestParse_MalformedQueryType(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing", body: `{"answer": "x", "session_id": "s"}`},
		{name: "unknown", body: `{"query_type": "CHITCHAT", "session_id": "s"}`},
		{name: "lowercase", body: `{"query_type": "question", "session_id": "s"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Parse(decode(t, tt.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrMalformedResponse))
		})
	}
}

func TestParse_NilResponse(t *testing.T) {
	_, err := New().Parse(nil)
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}
