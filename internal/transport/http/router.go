package http

import (
	"net/http"
	"time"

	httpmw "github.com/polimarket/market-service/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Deps struct {
	Handler  *Handler
	Identity httpmw.IdentityResolver
	// WS serves /ws/chats/{id}; nil leaves the route unmounted.
	WS http.HandlerFunc
	// AuthLimiter guards /auth/login and /auth/register. Nil disables it.
	AuthLimiter *httpmw.RateLimiter

	AllowedOrigins []string
	RequestTimeout time.Duration
	// StaticDir is served under /static when product images are stored locally.
	StaticDir string
}

func NewRouter(d Deps) http.Handler {
	h := d.Handler
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 30 * time.Second
	}
	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// websocket upgrades need the raw writer, so this route skips the
	// response wrappers and the request timeout
	if d.WS != nil {
		r.Get("/ws/chats/{id}", d.WS)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(gr chi.Router) {
		gr.Use(httpmw.WithRequestLoggerCtx)
		gr.Use(httpmw.RequestLogger)
		gr.Use(httpmw.Metrics)
		gr.Use(middlewareChi.Timeout(d.RequestTimeout))

		if d.StaticDir != "" {
			gr.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(d.StaticDir))))
		}

		gr.Route("/auth", func(ar chi.Router) {
			ar.With(d.AuthLimiter.Middleware).Post("/register", h.Register)
			ar.With(d.AuthLimiter.Middleware).Post("/login", h.Login)
			ar.With(httpmw.Auth(d.Identity)).Get("/me", h.Me)
		})

		gr.Get("/products", h.ListProducts)
		gr.Get("/products/{id}", h.GetProduct)

		// everything below requires a bearer token
		gr.Group(func(pr chi.Router) {
			pr.Use(httpmw.Auth(d.Identity))

			pr.Route("/users", func(ur chi.Router) {
				ur.Get("/", h.ListUsers)
				ur.Get("/me/favorites", h.MyFavorites)
				ur.Post("/me/become-delivery", h.BecomeDelivery)
				ur.Get("/{id}", h.GetUser)
				ur.Get("/{id}/products", h.UserProducts)
			})

			pr.Post("/products", h.CreateProduct)
			pr.Post("/products/{id}/favorite", h.AddFavorite)
			pr.Delete("/products/{id}/favorite", h.RemoveFavorite)

			pr.Route("/chats", func(cr chi.Router) {
				cr.Post("/start", h.StartChat)
				cr.Get("/my", h.MyChats)
				cr.Get("/{id}/messages", h.ChatHistory)
				cr.Post("/{id}/messages", h.SendMessage)
				cr.Post("/{id}/confirm-payment", h.ConfirmPayment)
			})

			pr.Route("/orders", func(or chi.Router) {
				or.Get("/fee", h.OrderFee)
				or.Post("/", h.CreateOrder)
				or.Get("/my", h.MyOrders)
				or.Get("/available", h.AvailableOrders)
				or.Post("/{id}/accept", h.AcceptOrder)
				or.Post("/{id}/reject", h.RejectOrder)
				or.Post("/{id}/complete", h.CompleteOrder)
			})
		})
	})

	return r
}
