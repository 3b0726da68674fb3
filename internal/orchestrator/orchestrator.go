package orchestrator

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"shopsearch/internal/domain"
	"shopsearch/internal/observability"
	"shopsearch/internal/parser"
	"shopsearch/internal/session"
)

// Ticket is an issued request awaiting execution.
type Ticket struct {
	Seq     uint64
	Request domain.SearchRequest
}

// Orchestrator owns the in-flight query, the session and the observable state.
//
// Submissions are never de-duplicated or cancelled. Each one gets a sequence
// number, and a response is applied only if no newer response has been applied
// already. Reset moves the floor past every issued sequence number, so
// responses still in flight at reset time are discarded.
type Orchestrator struct {
	backend domain.SearchBackend
	parser  *parser.Parser
	history *session.History
	metrics *observability.Metrics
	logger  *zap.Logger

	mu      sync.Mutex
	state   domain.State
	session *session.State
	issued  uint64
	applied uint64
	subs    []func(domain.State)
}

// New creates an orchestrator in the Idle state. history and metrics may be nil.
func New(backend domain.SearchBackend, p *parser.Parser, history *session.History, metrics *observability.Metrics, logger *zap.Logger) *Orchestrator {
	if p == nil {
		p = parser.New()
	}
	return &Orchestrator{
		backend: backend,
		parser:  p,
		history: history,
		metrics: metrics,
		logger:  observability.Component(logger, "orchestrator"),
		state:   domain.Idle{},
		session: session.New(),
	}
}

// State returns the current state.
func (o *Orchestrator) State() domain.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Session returns the current session.
func (o *Orchestrator) Session() domain.Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session.Current()
}

// Turns returns the client-side history of the current session.
func (o *Orchestrator) Turns() []session.Turn {
	return o.history.Turns(o.Session().ID)
}

// Subscribe registers fn to be called after every state transition.
// fn runs with no lock held.
func (o *Orchestrator) Subscribe(fn func(domain.State)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.subs = append(o.subs, fn)
}

// Begin validates query, moves to Pending and builds the request with the
// current session token. Blank queries return domain.ErrEmptyQuery and change nothing.
func (o *Orchestrator) Begin(query string) (Ticket, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Ticket{}, domain.ErrEmptyQuery
	}
	o.mu.Lock()
	o.issued++
	current := o.session.Current()
	t := Ticket{
		Seq:     o.issued,
		Request: domain.SearchRequest{Query: query, SessionID: current.ID},
	}
	o.state = domain.Pending{Query: query, Seq: t.Seq, Session: current}
	st, subs := o.state, o.subs
	o.mu.Unlock()

	o.logger.Debug("search issued",
		zap.Uint64("seq", t.Seq),
		zap.Bool("has_session", current.Active()))
	notify(subs, st)
	return t, nil
}

// Execute sends the ticket's request and applies the outcome. It returns the
// state after the attempt, which is the newer state when the response was stale.
func (o *Orchestrator) Execute(ctx context.Context, t Ticket) domain.State {
	start := time.Now()
	resp, err := o.backend.Search(ctx, t.Request)
	var parsed *parser.Parsed
	if err == nil {
		parsed, err = o.parser.Parse(resp)
	}
	elapsed := time.Since(start)

	o.mu.Lock()
	if t.Seq < o.applied {
		st := o.state
		o.mu.Unlock()
		o.metrics.IncStale()
		o.logger.Debug("stale response discarded",
			zap.Uint64("seq", t.Seq),
			zap.Uint64("applied", o.appliedSeq()),
			zap.String("state", domain.StateName(st)))
		return st
	}
	o.applied = t.Seq

	if err != nil {
		previous := o.session.Current()
		o.state = domain.Failed{
			Query:   t.Request.Query,
			Message: domain.UserMessage(err),
			Err:     err,
			Session: previous,
		}
		st, subs := o.state, o.subs
		o.mu.Unlock()

		class := domain.ErrorClass(err)
		o.metrics.ObserveSearch(class, elapsed)
		o.logger.Warn("search failed",
			zap.Uint64("seq", t.Seq),
			zap.String("error_class", class),
			zap.Error(err))
		notify(subs, st)
		return st
	}

	before := o.session.Current()
	after := o.session.Update(parsed.SessionID)
	o.state = domain.Settled{
		Query:               t.Request.Query,
		Result:              parsed.Result,
		Session:             after,
		ConversationContext: parsed.ConversationContext,
		Dropped:             parsed.Dropped,
	}
	st, subs := o.state, o.subs
	o.mu.Unlock()

	o.history.Carry(before.ID, after.ID)
	o.history.Record(after.ID, session.Turn{
		Query:    t.Request.Query,
		Kind:     parsed.Result.Kind(),
		Products: productCount(parsed.Result),
	})
	o.metrics.ObserveSearch("settled", elapsed)
	o.metrics.AddDropped(parsed.Dropped)
	o.metrics.SetTurns(after.TurnCount)
	o.logger.Info("search settled",
		zap.Uint64("seq", t.Seq),
		zap.String("kind", string(parsed.Result.Kind())),
		zap.Int("products", productCount(parsed.Result)),
		zap.Int("dropped", parsed.Dropped),
		zap.Int("turn", after.TurnCount),
		zap.Bool("session_replaced", before.ID != "" && before.ID != after.ID),
		zap.Duration("elapsed", elapsed))
	notify(subs, st)
	return st
}

// Submit runs Begin and Execute. Blank queries return the current state and
// domain.ErrEmptyQuery without sending anything.
func (o *Orchestrator) Submit(ctx context.Context, query string) (domain.State, error) {
	t, err := o.Begin(query)
	if err != nil {
		return o.State(), err
	}
	return o.Execute(ctx, t), nil
}

// ContinueWithFollowUp submits a surfaced follow-up question in the same session.
func (o *Orchestrator) ContinueWithFollowUp(ctx context.Context, followUp string) (domain.State, error) {
	return o.Submit(ctx, followUp)
}

// ResetSession clears the session and returns to Idle. The backend is not
// notified. Responses for requests issued before the reset are discarded.
func (o *Orchestrator) ResetSession() {
	o.mu.Lock()
	old := o.session.Current()
	o.session.Clear()
	o.applied = o.issued + 1
	o.state = domain.Idle{}
	st, subs := o.state, o.subs
	o.mu.Unlock()

	o.history.Forget(old.ID)
	o.metrics.IncReset()
	o.logger.Info("session reset", zap.Bool("had_session", old.Active()))
	notify(subs, st)
}

func (o *Orchestrator) appliedSeq() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.applied
}

func notify(subs []func(domain.State), st domain.State) {
	for _, fn := range subs {
		fn(st)
	}
}

func productCount(r domain.SearchResult) int {
	switch v := r.(type) {
	case *domain.Answer:
		return len(v.RelatedProducts)
	case *domain.Recommendation:
		return len(v.Products)
	default:
		return 0
	}
}
