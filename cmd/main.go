package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/polimarket/market-service/config"
	"github.com/polimarket/market-service/internal/logger"
	"github.com/polimarket/market-service/internal/postgres"
	"github.com/polimarket/market-service/internal/repository"
	"github.com/polimarket/market-service/internal/repository/memory"
	"github.com/polimarket/market-service/internal/security"
	"github.com/polimarket/market-service/internal/service"
	"github.com/polimarket/market-service/internal/storage"
	httpx "github.com/polimarket/market-service/internal/transport/http"
	httpmw "github.com/polimarket/market-service/internal/transport/http/middleware"
	"github.com/polimarket/market-service/internal/transport/ws"

	"github.com/redis/go-redis/v9"
)

type repos struct {
	users     repository.UserRepository
	products  repository.ProductRepository
	favorites repository.FavoriteRepository
	chats     repository.ChatRepository
	messages  repository.MessageRepository
	orders    repository.OrderRepository
}

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	lg := logger.Init(logger.Config{
		Env:       logger.ParseEnv(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	lg.Info("starting market-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- storage ---
	var rs repos
	if cfg.Postgres.DSN == "" {
		lg.Warn("postgres dsn is empty, using in-memory store")
		st := memory.New()
		rs = repos{st.Users(), st.Products(), st.Favorites(), st.Chats(), st.Messages(), st.Orders()}
	} else {
		pool, err := postgres.NewPool(ctx, cfg.Postgres.ToPGConfig())
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		defer pool.Close()

		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatalf("postgres migrate: %v", err)
		}
		rs = repos{
			users:     postgres.NewUserRepo(pool),
			products:  postgres.NewProductRepo(pool),
			favorites: postgres.NewFavoriteRepo(pool),
			chats:     postgres.NewChatRepo(pool),
			messages:  postgres.NewMessageRepo(pool),
			orders:    postgres.NewOrderRepo(pool),
		}
	}

	var (
		blobs     storage.Storage
		staticDir string
	)
	switch cfg.Storage.Backend {
	case "s3":
		s3s, err := storage.NewS3Storage(ctx, cfg.Storage.S3)
		if err != nil {
			log.Fatalf("s3 storage: %v", err)
		}
		blobs = s3s
	default:
		local, err := storage.NewLocalStorage(cfg.Storage.Local)
		if err != nil {
			log.Fatalf("local storage: %v", err)
		}
		blobs, staticDir = local, local.BasePath()
	}

	var limiter *httpmw.RateLimiter
	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("redis url: %v", err)
		}
		rdb := redis.NewClient(opt)
		defer func() { _ = rdb.Close() }()

		if err := rdb.Ping(ctx).Err(); err != nil {
			lg.Warn("redis ping failed, rate limiter fails open", slog.Any("err", err))
		}
		limiter = httpmw.NewRateLimiter(httpmw.NewRedisCounter(rdb), "polimarket:rl",
			cfg.Redis.RateLimit.Limit, cfg.Redis.RateLimit.Window)
	}

	// --- services ---
	signer, err := security.NewJWTSigner(cfg.Security.JWT.Secret, cfg.Security.JWT.Issuer,
		cfg.Security.JWT.AccessTTL, cfg.Security.JWT.ClockSkew)
	if err != nil {
		log.Fatalf("jwt: %v", err)
	}

	authSvc := service.NewAuthService(rs.users, signer, service.AuthConfig{
		EmailDomain:    cfg.Security.EmailDomain,
		DeliverySecret: cfg.Security.DeliverySecret,
		Password: security.BcryptConfig{
			Cost:      cfg.Security.Password.BcryptCost,
			MinLength: cfg.Security.Password.MinLength,
		},
	})
	identitySvc := service.NewIdentityService(rs.users, signer)
	productSvc := service.NewProductService(rs.products, rs.favorites, rs.users, blobs)
	chatSvc := service.NewChatService(rs.chats, rs.messages, rs.products)
	chatSvc.SetMaxMessageLength(cfg.Chat.MaxMessageLength)
	orderSvc := service.NewOrderService(rs.orders, rs.products, service.FeeTable{
		Default:   cfg.Delivery.DefaultFee,
		ByFaculty: cfg.Delivery.Fees,
	})

	// --- WS Hub & Server ---
	hub := ws.NewHub()
	ingest := ws.NewIngest(chatSvc, hub)
	ctrl := ws.NewController(identitySvc, chatSvc, hub, ingest, lg.With("component", "ws"))
	wsServer := ws.NewServer(ctrl, ws.Config{
		PingInterval:   cfg.WS.PingInterval,
		WriteTimeout:   cfg.WS.WriteTimeout,
		IdleTimeout:    cfg.WS.IdleTimeout,
		ReadLimit:      cfg.WS.ReadLimit,
		SendQueue:      cfg.WS.SendQueue,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	}, lg.With("component", "ws"))

	// --- HTTP ---
	handler := httpx.NewHandler(authSvc, productSvc, chatSvc, orderSvc, ingest, cfg.HTTP.MaxUploadBytes)
	router := httpx.NewRouter(httpx.Deps{
		Handler:        handler,
		Identity:       identitySvc,
		WS:             wsServer.HandleWS,
		AuthLimiter:    limiter,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		StaticDir:      staticDir,
	})

	srv := httpx.NewServer(httpx.ServerConfig{
		Addr:            cfg.HTTP.Addr,
		ReadTimeout:     cfg.HTTP.ReadTimeout,
		WriteTimeout:    cfg.HTTP.WriteTimeout,
		IdleTimeout:     cfg.HTTP.IdleTimeout,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
	}, router)
	srv.RegisterOnShutdown(hub.CloseAll)

	lg.Info("http listen", "addr", cfg.HTTP.Addr)
	if err := srv.Run(ctx); err != nil {
		lg.Error("server error", slog.Any("err", err))
	}
	lg.Info("stopped")
}
