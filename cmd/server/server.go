package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/velichkin/securechannel/internal/audit"
	"github.com/velichkin/securechannel/internal/config"
	"github.com/velichkin/securechannel/internal/database"
	"github.com/velichkin/securechannel/internal/handlers"
	"github.com/velichkin/securechannel/internal/session"
	"github.com/velichkin/securechannel/internal/store"
	ws "github.com/velichkin/securechannel/internal/websocket"
	"github.com/velichkin/securechannel/pkg/auth"
)

type Server struct {
	Router     *gin.Engine
	DB         *database.Database
	Redis      *redis.Client
	JWTManager *auth.JWTManager
	Store      *store.Store
	Hub        *ws.Hub
	Trigger    *audit.Trigger

	cfg *config.Config
}

func NewServer() *Server {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	dbConn := &database.Database{}
	if err := dbConn.Connect(cfg.DatabaseURL); err != nil {
		log.Fatalf("Postgres connect failed: %v", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Redis connect failed: %v", err)
	}

	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	sessions := session.NewRedisRegistry(rdb)

	st := store.New(dbConn, store.Config{
		WindowSize:       cfg.WindowSize,
		EditWindow:       cfg.EditWindow,
		MaxContentLength: cfg.MaxContentLength,
	})
	trigger := audit.NewTrigger(dbConn, st.Mutations())
	hub := ws.NewHub()

	gateH := handlers.NewGateHandler(cfg.AccessKeyHash, jwtMgr, sessions, cfg.GateTimeout)
	msgH := handlers.NewHTTPMessageHandler(st)
	wsMsgH := handlers.NewMessageHandler(st)
	wsH := handlers.NewWebSocketHandler(hub, wsMsgH, st)

	router := gin.Default()
	APIEndpoints(router, gateH, msgH, wsH, jwtMgr, sessions)

	return &Server{
		Router:     router,
		DB:         dbConn,
		Redis:      rdb,
		JWTManager: jwtMgr,
		Store:      st,
		Hub:        hub,
		Trigger:    trigger,
		cfg:        cfg,
	}
}

func (s *Server) Run() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Subscribe before the listener comes up: a broken feed is a startup
	// failure, not something to discover with traffic already flowing.
	sub, err := s.Store.Subscribe(ctx, s.cfg.WindowSize)
	if err != nil {
		log.Fatalf("Feed subscription failed: %v", err)
	}

	go s.Hub.Run()
	go s.Trigger.Run(ctx)
	go s.forwardSnapshots(ctx, sub)

	srv := &http.Server{Addr: ":" + s.cfg.Port, Handler: s.Router}
	go func() {
		log.Printf("Server starting on port %s", s.cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server run error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	s.Hub.Stop()
}

// forwardSnapshots bridges the store's subscription feed onto the websocket
// hub: every window snapshot is fanned out to all connected clients.
func (s *Server) forwardSnapshots(ctx context.Context, sub *store.Subscription) {
	defer sub.Cancel()

	for {
		select {
		case <-ctx.Done():
			return

		case window, ok := <-sub.C:
			if !ok {
				return
			}

			frame := ws.Frame{Type: ws.TypeSnapshot, Timestamp: time.Now()}
			data, err := json.Marshal(handlers.SnapshotPayload(window))
			if err != nil {
				log.Printf("Snapshot encode failed: %v", err)
				continue
			}
			frame.Data = data

			if frameData, err := json.Marshal(frame); err == nil {
				s.Hub.Broadcast(frameData)
			}
		}
	}
}
