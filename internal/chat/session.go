package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"famspend/internal/core"
	"famspend/internal/log"
	"famspend/internal/parser"
	"famspend/internal/store"
)

var (
	ErrEmptyMessage   = errors.New("empty message")
	ErrTurnInProgress = errors.New("a message is already being processed")
	ErrSessionClosed  = errors.New("chat session closed")
)

type State int

const (
	StateIdle State = iota
	StateAwaitingResponse
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingResponse:
		return "awaiting_response"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Stats are the session's running figures.
type Stats struct {
	RunningTotal core.Money
	TodayTotal   core.Money
	EntryCount   int
}

// Session is one conversation. Only one turn runs at a time; a submit that
// arrives mid-turn is rejected with ErrTurnInProgress.
type Session struct {
	id       string
	identity core.Identity
	engine   Engine
	lister   store.ExpenseLister
	now      func() time.Time
	logger   *log.Logger

	mu         sync.Mutex
	state      State
	generation uint64
	transcript []Message
	stats      Stats
}

// SessionConfig wires a Session. Lister is only needed for Refresh.
type SessionConfig struct {
	ID       string
	Identity core.Identity
	Engine   Engine
	Lister   store.ExpenseLister
	Now      func() time.Time
	Logger   *log.Logger
}

func NewSession(cfg SessionConfig) *Session {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Discard()
	}
	s := &Session{
		id:       cfg.ID,
		identity: cfg.Identity,
		engine:   cfg.Engine,
		lister:   cfg.Lister,
		now:      cfg.Now,
		logger:   cfg.Logger.WithComponent(log.ComponentChat).With(log.FieldSessionID, cfg.ID),
	}
	s.transcript = []Message{newMessage(RoleBot, WelcomeMessage, s.now())}
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) Identity() core.Identity { return s.identity }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Transcript returns a copy of the conversation so far.
func (s *Session) Transcript() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.transcript...)
}

// Submit runs one turn. Engine failures do not surface as errors: they
// become a RoleError reply. The returned error is reserved for turns that
// were never started (empty text, turn in flight, closed session) or whose
// session was reset while they ran.
func (s *Session) Submit(ctx context.Context, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyMessage
	}

	s.mu.Lock()
	switch s.state {
	case StateClosed:
		s.mu.Unlock()
		return Message{}, ErrSessionClosed
	case StateAwaitingResponse:
		s.mu.Unlock()
		return Message{}, ErrTurnInProgress
	}
	s.state = StateAwaitingResponse
	gen := s.generation
	s.transcript = append(s.transcript, newMessage(RoleUser, text, s.now()))
	s.mu.Unlock()

	intent := parser.Route(text)
	reply, logged := s.dispatch(ctx, intent, text)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		s.logger.DebugContext(ctx, "Dropping reply for a reset session", log.FieldIntent, string(intent))
		return Message{}, ErrSessionClosed
	}
	s.transcript = append(s.transcript, reply)
	s.state = StateIdle
	if logged != nil {
		s.applyLogged(logged)
	}
	if reply.Code == CodeAuthExpired {
		s.state = StateClosed
	}
	return reply, nil
}

func (s *Session) dispatch(ctx context.Context, intent parser.Intent, text string) (Message, *LogResult) {
	var (
		reply  Message
		logged *LogResult
		err    error
	)

	switch intent {
	case parser.IntentLogExpense:
		logged, err = s.engine.LogExpense(ctx, s.identity, text)
		if err == nil {
			reply = newMessage(RoleBot, logged.Message, s.now())
			expense := logged.Expense
			reply.Expense = &expense
			reply.Parsed = logged.Parsed
			reply.Language = &logged.Language
		}
	default:
		var answer *QueryResult
		answer, err = s.engine.Query(ctx, s.identity, text)
		if err == nil {
			reply = newMessage(RoleBot, answer.Message, s.now())
			reply.Context = answer.Context
			reply.Language = &answer.Language
		}
	}

	if err != nil {
		msg, code := ErrorReply(err)
		reply = newMessage(RoleError, msg, s.now())
		reply.Code = code
		s.logger.WarnContext(ctx, "Chat turn failed",
			log.FieldIntent, string(intent),
			log.FieldErrorType, code,
			log.FieldError, err)
		return reply, nil
	}
	return reply, logged
}

// applyLogged updates stats for a recorded expense. Callers hold s.mu.
func (s *Session) applyLogged(res *LogResult) {
	amount := res.Expense.Amount
	if amount.IsZero() && res.Parsed != nil && res.Parsed.Amount != nil {
		amount = *res.Parsed.Amount
	}
	if res.FamilyTotal != nil {
		s.stats.RunningTotal = *res.FamilyTotal
	} else {
		s.stats.RunningTotal = s.stats.RunningTotal.Add(amount)
	}
	occurred := res.Expense.OccurredAt
	if occurred.IsZero() || core.SameDay(occurred, s.now()) {
		s.stats.TodayTotal = s.stats.TodayTotal.Add(amount)
	}
	s.stats.EntryCount++
}

// Refresh recomputes the stats from the full collection.
func (s *Session) Refresh(ctx context.Context) (Stats, error) {
	if s.lister == nil {
		return s.Stats(), nil
	}
	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()

	expenses, err := s.lister.ListExpenses(ctx, store.ScopeFor(s.identity))
	if err != nil {
		return Stats{}, err
	}
	now := s.now()
	fresh := Stats{
		RunningTotal: core.Sum(expenses),
		TodayTotal:   core.Sum(core.Filter(expenses, core.OnDay(now))),
		EntryCount:   len(expenses),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen || s.state == StateClosed {
		return Stats{}, ErrSessionClosed
	}
	s.stats = fresh
	return fresh, nil
}

// Reset starts the conversation over. A turn still in flight is dropped.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	s.generation++
	s.state = StateIdle
	s.stats = Stats{}
	s.transcript = []Message{newMessage(RoleBot, WelcomeMessage, s.now())}
}

// Close discards the transcript. Any in-flight turn result is dropped.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.state = StateClosed
	s.transcript = nil
}
