package ws

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

type Config struct {
	PingInterval time.Duration
	WriteTimeout time.Duration
	// IdleTimeout closes connections that send nothing for this long. Zero disables it.
	IdleTimeout time.Duration
	ReadLimit   int64
	SendQueue   int
	// AllowedOrigins empty accepts any origin.
	AllowedOrigins []string
}

type Server struct {
	upgrader websocket.Upgrader
	ctrl     *Controller
	opts     connOptions
	log      *slog.Logger
}

func NewServer(ctrl *Controller, cfg Config, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	origins := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			origins = nil
			break
		}
		origins[strings.TrimRight(o, "/")] = struct{}{}
	}

	return &Server{
		ctrl: ctrl,
		log:  log,
		opts: connOptions{
			sendQueue:    cfg.SendQueue,
			writeTimeout: cfg.WriteTimeout,
			pingInterval: cfg.PingInterval,
			idleTimeout:  cfg.IdleTimeout,
			readLimit:    cfg.ReadLimit,
		},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(origins) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := origins[origin]
				return ok
			},
		},
	}
}

// HandleWS serves GET /ws/chats/{id}?token=...
//
// The upgrade always happens first so that every rejection reaches the client
// as a close frame rather than an HTTP status.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("ws upgrade failed", slog.Any("err", err))
		return
	}
	t := newWsConn(conn, s.opts)

	chatID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || chatID <= 0 {
		_ = t.CloseWithCode(websocket.ClosePolicyViolation, "invalid chat id")
		return
	}

	q := r.URL.Query()
	token := q.Get("token")
	if token == "" {
		token = q.Get("access_token")
	}

	sess, err := s.ctrl.Admit(r.Context(), t, chatID, token)
	if err != nil {
		return
	}

	sess.Run(r.Context())
}
