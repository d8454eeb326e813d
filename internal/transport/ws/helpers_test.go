package ws

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/polimarket/market-service/internal/domain"
	"github.com/polimarket/market-service/internal/repository/memory"
	"github.com/polimarket/market-service/internal/security"
	"github.com/polimarket/market-service/internal/service"

	"github.com/stretchr/testify/require"
)

// fakeConn is an in-memory Transport.
type fakeConn struct {
	mu       sync.Mutex
	sent     [][]byte
	failSend error
	closed   bool
	code     int
	reason   string

	in   chan []byte
	done chan struct{}
	once sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{in: make(chan []byte, 16), done: make(chan struct{})}
}

func (c *fakeConn) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	if c.failSend != nil {
		return c.failSend
	}
	c.sent = append(c.sent, append([]byte(nil), payload...))
	return nil
}

func (c *fakeConn) Close() error { return c.CloseWithCode(1000, "") }

func (c *fakeConn) CloseWithCode(code int, reason string) error {
	c.once.Do(func() {
		c.mu.Lock()
		c.closed, c.code, c.reason = true, code, reason
		c.mu.Unlock()
		close(c.done)
	})
	return nil
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case b := <-c.in:
		return b, nil
	case <-c.done:
		return nil, ErrConnClosed
	}
}

func (c *fakeConn) setFailSend(err error) {
	c.mu.Lock()
	c.failSend = err
	c.mu.Unlock()
}

func (c *fakeConn) frames() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.sent...)
}

func (c *fakeConn) closeCode() (bool, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed, c.code
}

// flakyMessages wraps the memory message repo with a switchable insert failure.
type flakyMessages struct {
	*memory.MessageRepo

	mu  sync.Mutex
	err error
}

func (m *flakyMessages) failWith(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

func (m *flakyMessages) Create(ctx context.Context, msg *domain.Message) error {
	m.mu.Lock()
	err := m.err
	m.mu.Unlock()
	if err != nil {
		return err
	}
	return m.MessageRepo.Create(ctx, msg)
}

// world is a seeded marketplace with one sale chat between seller and buyer.
type world struct {
	store    *memory.Store
	messages *flakyMessages
	signer   *security.JWTSigner
	hub      *Hub
	chats    *service.ChatService
	ingest   *Ingest
	ctrl     *Controller

	seller, buyer, stranger domain.User
	chat                    *domain.Chat
}

func newWorld(t *testing.T) *world {
	t.Helper()
	ctx := context.Background()

	signer, err := security.NewJWTSigner("ws-secret", "polimarket", time.Hour, 0)
	require.NoError(t, err)

	st := memory.New()
	w := &world{store: st, messages: &flakyMessages{MessageRepo: st.Messages()}, signer: signer, hub: NewHub()}
	w.chats = service.NewChatService(st.Chats(), w.messages, st.Products())
	w.ingest = NewIngest(w.chats, w.hub)
	w.ctrl = NewController(service.NewIdentityService(st.Users(), signer), w.chats, w.hub, w.ingest, nil)

	mk := func(name string) domain.User {
		u := domain.User{Name: name, Email: name + "@espol.edu.ec", PasswordHash: "x"}
		id, err := st.Users().Create(ctx, &u)
		require.NoError(t, err)
		u.ID = id
		return u
	}
	w.seller, w.buyer, w.stranger = mk("ana"), mk("bob"), mk("eve")

	p := &domain.Product{Title: "Calculadora", Price: 10, Category: domain.CategoryStudy, SellerID: w.seller.ID}
	require.NoError(t, st.Products().Create(ctx, p))

	w.chat, err = w.chats.Start(ctx, p.ID, w.buyer.ID)
	require.NoError(t, err)

	return w
}

func (w *world) token(t *testing.T, u domain.User) string {
	t.Helper()
	tok, err := w.signer.SignAccessToken(u.ID, time.Now())
	require.NoError(t, err)
	return tok
}

func decodeFrame(t *testing.T, b []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}
