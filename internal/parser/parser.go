package parser

import (
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"

	"shopsearch/internal/domain"
)

// productRecord is the wire shape of one product.
type productRecord struct {
	ProductID      string        `json:"product_id" validate:"required"`
	Name           string        `json:"name" validate:"required"`
	Category       string        `json:"category"`
	Description    string        `json:"description"`
	TopIngredients string        `json:"top_ingredients"`
	Tags           string        `json:"tags"`
	Price          domain.Amount `json:"price (USD)"`
	Margin         domain.Amount `json:"margin (%)"`
}

// Parsed is a classified response plus the fields that live outside the result variant.
type Parsed struct {
	Result              domain.SearchResult
	SessionID           string
	ConversationContext string
	// Dropped counts product records that failed validation.
	Dropped int
}

// Parser turns decoded backend responses into typed search results.
// Product records missing identity fields are dropped, not fatal.
type Parser struct {
	validate *validator.Validate
}

// New creates a parser.
func New() *Parser {
	return &Parser{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Parse classifies resp by query_type. An absent or unknown query_type is a
// *domain.MalformedResponseError; no default variant is guessed.
func (p *Parser) Parse(resp *domain.SearchResponse) (*Parsed, error) {
	if resp == nil {
		return nil, &domain.MalformedResponseError{Reason: "empty body"}
	}
	kind := domain.ResultKind(strings.TrimSpace(resp.QueryType))
	if kind != domain.KindQuestion && kind != domain.KindRecommendation {
		if resp.QueryType == "" {
			return nil, &domain.MalformedResponseError{Reason: "missing query_type"}
		}
		return nil, &domain.MalformedResponseError{Reason: "unknown query_type " + resp.QueryType}
	}

	products, dropped := p.products(resp.Products)
	out := &Parsed{
		SessionID:           resp.SessionID,
		ConversationContext: deref(resp.ConversationContext),
		Dropped:             dropped,
	}
	switch kind {
	case domain.KindQuestion:
		out.Result = &domain.Answer{
			Text:              deref(resp.Answer),
			SupportingContext: append([]string(nil), resp.Context...),
			RelatedProducts:   products,
			FollowUpQuestion:  deref(resp.FollowUpQuestion),
		}
	case domain.KindRecommendation:
		out.Result = &domain.Recommendation{
			Products:         products,
			Note:             deref(resp.Answer),
			FollowUpQuestion: deref(resp.FollowUpQuestion),
		}
	}
	return out, nil
}

func (p *Parser) products(raw []json.RawMessage) ([]domain.Product, int) {
	if len(raw) == 0 {
		return nil, 0
	}
	products := make([]domain.Product, 0, len(raw))
	dropped := 0
	for _, r := range raw {
		var rec productRecord
		if err := json.Unmarshal(r, &rec); err != nil {
			dropped++
			continue
		}
		if err := p.validate.Struct(rec); err != nil {
			dropped++
			continue
		}
		products = append(products, domain.Product{
			ID:          rec.ProductID,
			Name:        rec.Name,
			Category:    rec.Category,
			Description: rec.Description,
			Ingredients: rec.TopIngredients,
			Tags:        rec.Tags,
			Price:       rec.Price,
			Margin:      rec.Margin,
		})
	}
	return products, dropped
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
