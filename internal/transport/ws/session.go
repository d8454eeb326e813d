package ws

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/polimarket/market-service/internal/domain"
	"github.com/polimarket/market-service/internal/metrics"

	"github.com/gorilla/websocket"
)

// State is the lifecycle position of a connection.
type State int32

const (
	StateConnecting State = iota
	StateAuthenticating
	StateAuthorized
	StateAdmitted
	StateLeaving
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthorized:
		return "authorized"
	case StateAdmitted:
		return "admitted"
	case StateLeaving:
		return "leaving"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (domain.Identity, error)
}

type ChatAuthorizer interface {
	Authorize(ctx context.Context, chatID, userID int64) (*domain.Chat, error)
}

// Controller admits connections into rooms and builds their sessions.
type Controller struct {
	identity IdentityResolver
	guard    ChatAuthorizer
	hub      *Hub
	ingest   *Ingest
	log      *slog.Logger

	// OnState, when set, observes every state change.
	OnState func(s *Session, st State)
}

func NewController(identity IdentityResolver, guard ChatAuthorizer, hub *Hub, ingest *Ingest, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}

	return &Controller{
		identity: identity,
		guard:    guard,
		hub:      hub,
		ingest:   ingest,
		log:      log,
	}
}

// Admit authenticates token, authorizes the user for chatID and joins the
// room. On failure the transport is closed (1008 for policy rejections, 1011
// otherwise) and the hub is never touched.
func (c *Controller) Admit(ctx context.Context, t Transport, chatID int64, token string) (*Session, error) {
	s := &Session{
		ctrl:   c,
		t:      t,
		chatID: chatID,
		done:   make(chan struct{}),
	}
	c.notify(s, StateConnecting)

	s.setState(StateAuthenticating)
	who, err := c.identity.Resolve(ctx, token)
	if err != nil {
		return nil, s.reject(err)
	}
	s.who = who

	if _, err := c.guard.Authorize(ctx, chatID, who.ID); err != nil {
		return nil, s.reject(err)
	}
	s.setState(StateAuthorized)

	c.hub.Join(chatID, t)
	s.setState(StateAdmitted)
	metrics.WSConnections.Inc()

	c.log.Debug("ws admitted", "chat_id", chatID, "user_id", who.ID)

	return s, nil
}

func (c *Controller) notify(s *Session, st State) {
	if c.OnState != nil {
		c.OnState(s, st)
	}
}

// Session is one admitted (or rejected) connection.
type Session struct {
	ctrl   *Controller
	t      Transport
	chatID int64
	who    domain.Identity
	state  atomic.Int32

	closeOnce sync.Once
	done      chan struct{}
}

func (s *Session) State() State              { return State(s.state.Load()) }
func (s *Session) ChatID() int64             { return s.chatID }
func (s *Session) Identity() domain.Identity { return s.who }

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
	s.ctrl.notify(s, st)
}

func (s *Session) reject(cause error) error {
	code, reason, label := websocket.ClosePolicyViolation, "forbidden", "forbidden"
	switch {
	case errors.Is(cause, domain.ErrUnauthenticated):
		reason, label = "unauthenticated", "unauthenticated"
	case errors.Is(cause, domain.ErrForbidden):
	case errors.Is(cause, domain.ErrChatNotFound):
		reason, label = "chat not found", "not_found"
	default:
		code, reason, label = websocket.CloseInternalServerErr, "internal error", "internal"
		s.ctrl.log.Error("ws admit failed", "chat_id", s.chatID, slog.Any("err", cause))
	}
	metrics.WSRejected.WithLabelValues(label).Inc()
	s.ctrl.log.Info("ws admit rejected", "chat_id", s.chatID, "reason", label)

	s.closeOnce.Do(func() {
		_ = s.t.CloseWithCode(code, reason)
		close(s.done)
		s.setState(StateClosed)
	})

	return cause
}

// Run reads inbound units until the transport fails or ctx is cancelled,
// then leaves the room and closes. Malformed units and storage failures are
// reported to the sender and skipped.
func (s *Session) Run(ctx context.Context) {
	defer s.Close()

	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.done:
		}
	}()

	from := Sender{ChatID: s.chatID, User: s.who}
	for {
		raw, err := s.t.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.ctrl.log.Debug("ws read failed", "chat_id", s.chatID, "user_id", s.who.ID, slog.Any("err", err))
			}
			return
		}

		if _, err := s.ctrl.ingest.Handle(ctx, from, raw); err != nil {
			s.reportIngestError(err)
		}
	}
}

func (s *Session) reportIngestError(err error) {
	var msg string
	switch {
	case errors.Is(err, domain.ErrMalformedMessage):
		msg = "malformed message: expected {\"text\": string}"
	case errors.Is(err, domain.ErrMessageTooLong):
		msg = domain.ErrMessageTooLong.Error()
	default:
		msg = "message could not be saved"
		s.ctrl.log.Error("ws persist failed", "chat_id", s.chatID, "user_id", s.who.ID, slog.Any("err", err))
	}
	_ = s.t.Send(encodeError(msg))
}

// Close leaves the room and closes the transport exactly once. Calling it
// in any state, from any goroutine, is safe.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.State() == StateAdmitted {
			s.setState(StateLeaving)
			s.ctrl.hub.Leave(s.chatID, s.t)
			metrics.WSConnections.Dec()
		}
		_ = s.t.Close()
		close(s.done)
		s.setState(StateClosed)
	})
}
