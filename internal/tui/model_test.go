package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopsearch/internal/domain"
	"shopsearch/internal/format"
	"shopsearch/internal/orchestrator"
	"shopsearch/internal/session"
)

type fakePort struct {
	state   domain.State
	session domain.Session
	turns   []session.Turn
	begun   []string
	resets  int
	result  domain.State
}

func (f *fakePort) Begin(query string) (orchestrator.Ticket, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return orchestrator.Ticket{}, domain.ErrEmptyQuery
	}
	f.begun = append(f.begun, q)
	seq := uint64(len(f.begun))
	f.state = domain.Pending{Query: q, Seq: seq, Session: f.session}
	return orchestrator.Ticket{Seq: seq, Request: domain.SearchRequest{Query: q, SessionID: f.session.ID}}, nil
}

func (f *fakePort) Execute(ctx context.Context, t orchestrator.Ticket) domain.State {
	f.state = f.result
	return f.state
}

func (f *fakePort) ResetSession() {
	f.resets++
	f.state = domain.Idle{}
	f.session = domain.Session{}
}

func (f *fakePort) State() domain.State     { return f.state }
func (f *fakePort) Session() domain.Session { return f.session }
func (f *fakePort) Turns() []session.Turn   { return f.turns }

func newModel(f *fakePort) Model {
	if f.state == nil {
		f.state = domain.Idle{}
	}
	m := New(context.Background(), f)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model)
}

func key(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func settledRecommendation() domain.Settled {
	return domain.Settled{
		Query: "moisturizer",
		Result: &domain.Recommendation{
			Note: "Here are hydrating picks.",
			Products: []domain.Product{
				{ID: "P1", Name: "Hydra Cream", Category: "Moisturizer", Ingredients: "Water; Hyaluronic Acid", Tags: "hydrating|daily", Price: domain.NewAmount(19.5)},
				{ID: "P2", Name: "Oil-Free Gel", Category: "Moisturizer"},
			},
			FollowUpQuestion: "What about oily skin?",
		},
		Session:             domain.Session{ID: "T", TurnCount: 1},
		ConversationContext: "previous turns",
	}
}

func TestEnter_BlankInputDoesNothing(t *testing.T) {
	f := &fakePort{}
	m := newModel(f)
	m.input.SetValue("   ")

	next, cmd := m.Update(key(tea.KeyEnter))
	assert.Nil(t, cmd)
	assert.Empty(t, f.begun)
	assert.Equal(t, domain.Idle{}, next.(Model).state)
}

func TestEnter_SubmitsAndShowsPending(t *testing.T) {
	f := &fakePort{session: domain.Session{ID: "T", TurnCount: 2}}
	m := newModel(f)
	m.input.SetValue("cleanser for acne")

	next, cmd := m.Update(key(tea.KeyEnter))
	require.NotNil(t, cmd)
	nm := next.(Model)

	assert.Equal(t, []string{"cleanser for acne"}, f.begun)
	assert.IsType(t, domain.Pending{}, nm.state)
	assert.Empty(t, nm.input.Value())
	assert.Contains(t, nm.viewport.View(), "Analyzing your request with conversation context")
}

func TestStateMsg_RendersRecommendation(t *testing.T) {
	f := &fakePort{session: domain.Session{ID: "T", TurnCount: 1}}
	m := newModel(f)

	next, _ := m.Update(stateMsg{state: settledRecommendation()})
	nm := next.(Model)
	view := nm.viewport.View()

	assert.Contains(t, view, "Building on our conversation")
	assert.Contains(t, view, "Personalized Recommendation")
	assert.Contains(t, view, "Hydra Cream")
	assert.Contains(t, view, "$19.50")
	assert.Contains(t, view, "Hyaluronic Acid")
	assert.Contains(t, view, "#hydrating")
	assert.Contains(t, view, "What about oily skin?")
	assert.Contains(t, nm.status, "moisturizer")
	assert.Contains(t, nm.View(), "turn 1")
}

func TestArrows_CycleProducts(t *testing.T) {
	f := &fakePort{}
	m := newModel(f)
	next, _ := m.Update(stateMsg{state: settledRecommendation()})

	next, _ = next.(Model).Update(key(tea.KeyDown))
	nm := next.(Model)
	assert.Equal(t, 1, nm.cursor)
	assert.Contains(t, nm.viewport.View(), "Oil-Free Gel")
	assert.Contains(t, nm.viewport.View(), format.PriceUnavailable)

	next, _ = nm.Update(key(tea.KeyDown))
	assert.Equal(t, 0, next.(Model).cursor)
	next, _ = next.(Model).Update(key(tea.KeyUp))
	assert.Equal(t, 1, next.(Model).cursor)
}

func TestCtrlF_ContinuesWithFollowUp(t *testing.T) {
	f := &fakePort{session: domain.Session{ID: "T", TurnCount: 1}}
	m := newModel(f)
	next, _ := m.Update(stateMsg{state: settledRecommendation()})

	_, cmd := next.(Model).Update(key(tea.KeyCtrlF))
	require.NotNil(t, cmd)
	assert.Equal(t, []string{"What about oily skin?"}, f.begun)
}

func TestCtrlF_WithoutFollowUpIsNoop(t *testing.T) {
	f := &fakePort{}
	m := newModel(f)

	_, cmd := m.Update(key(tea.KeyCtrlF))
	assert.Nil(t, cmd)
	assert.Empty(t, f.begun)
}

func TestCtrlN_ResetsSession(t *testing.T) {
	f := &fakePort{session: domain.Session{ID: "T", TurnCount: 3}}
	m := newModel(f)
	next, _ := m.Update(stateMsg{state: settledRecommendation()})

	next, _ = next.(Model).Update(key(tea.KeyCtrlN))
	nm := next.(Model)
	assert.Equal(t, 1, f.resets)
	assert.Equal(t, domain.Idle{}, nm.state)
	assert.Contains(t, nm.View(), "No active session")
}

func TestFailedState(t *testing.T) {
	f := &fakePort{}
	m := newModel(f)

	next, _ := m.Update(stateMsg{state: domain.Failed{Query: "q", Message: "Error loading catalog", Session: domain.Session{}}})
	nm := next.(Model)
	assert.Contains(t, nm.viewport.View(), "Error loading catalog")
	assert.Contains(t, nm.status, "retry")
}

func TestAnswerRendering(t *testing.T) {
	st := domain.Settled{
		Query: "spf?",
		Result: &domain.Answer{
			Text:              "Use SPF daily",
			SupportingContext: []string{"src1", "src2", "src3", "src4"},
			RelatedProducts:   []domain.Product{{ID: "S", Name: "Sun Shield"}},
		},
	}
	out := renderSettled(st, 0, 80)
	assert.Contains(t, out, "Expert Answer")
	assert.Contains(t, out, "Sources: 1 2 3 +1 more")
	assert.Contains(t, out, "[4] src4")
	assert.Contains(t, out, "Related Products")
	assert.Contains(t, out, "Sun Shield")
	assert.NotContains(t, out, "Let me help you")
}

func TestHistoryToggle(t *testing.T) {
	f := &fakePort{turns: []session.Turn{{Query: "dry skin", Kind: domain.KindRecommendation, Products: 2, At: time.Now()}}}
	m := newModel(f)

	next, _ := m.Update(key(tea.KeyCtrlT))
	nm := next.(Model)
	assert.True(t, nm.showHistory)
	assert.Contains(t, nm.viewport.View(), "dry skin")

	next, _ = nm.Update(key(tea.KeyCtrlT))
	assert.NotContains(t, next.(Model).viewport.View(), "dry skin")
}

func TestQuitKeys(t *testing.T) {
	m := newModel(&fakePort{})
	_, cmd := m.Update(key(tea.KeyCtrlC))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
