package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcfg "CookTalk/config"
	"CookTalk/logger"
	"CookTalk/module/chat/store"
	"CookTalk/service/chat"
	"CookTalk/service/chat/handlers"
	"CookTalk/service/mgo"
	"CookTalk/service/natsx"
	"CookTalk/service/storage"
	redisx "CookTalk/service/storage/redis"
	"CookTalk/tools/ids"
	"CookTalk/tools/security"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := appcfg.Load("cooktalk")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	ids.SetNodeID(cfg.Server.NodeID)

	// 1) Persistent store
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	db, err := mgo.Connect(ctx, mgo.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	})
	cancel()
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer func() { _ = mgo.Disconnect(context.Background(), db) }()

	messages := store.NewMessages(db)
	membership := store.NewMembership(db)
	if err := messages.EnsureIndexes(context.Background()); err != nil {
		logger.Warnf("[boot] ensure indexes: %v", err)
	}

	// 2) Optional cross-node pieces
	var mirror chat.PresenceMirror
	if cfg.Redis.Addr != "" {
		rdb, err := redisx.New(redisx.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatalf("redis connect: %v", err)
		}
		defer func() { _ = rdb.Close() }()
		mirror = storage.NewMirror(rdb, cfg.Server.GatewayID, cfg.Redis.TTL)
	}

	var relay *natsx.Relay
	if cfg.Nats.URL != "" {
		relay, err = natsx.NewRelay(cfg.Nats.URL, cfg.Server.GatewayID)
		if err != nil {
			log.Fatalf("nats connect: %v", err)
		}
		defer relay.Close()
	}

	// 3) Gateway
	opts := security.DefaultOptions([]byte(cfg.JWT.Secret))
	opts.Alg = cfg.JWT.Alg
	verifier := chat.VerifierFunc(func(token string) (string, error) {
		return security.Verify(opts, token)
	})

	srv := chat.NewServer(chat.ServerConf{
		GatewayID:     cfg.Server.GatewayID,
		SendQueueSize: cfg.Server.SendQueueSize,
		Mirror:        mirror,
		Relay:         relay,
	}, verifier, messages, membership)
	handlers.RegisterAll(srv)

	if relay != nil {
		if err := relay.Subscribe(srv.RoomSet().DeliverRemote); err != nil {
			log.Fatalf("nats subscribe: %v", err)
		}
	}

	// 4) HTTP + WebSocket
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/ws", srv.HandleWS) // e.g. ws://host:8090/ws?auth=<token>
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	httpSrv := &http.Server{Addr: cfg.Server.Addr, Handler: r}
	go func() {
		logger.Infof("[boot] gateway=%s listening on %s", cfg.Server.GatewayID, cfg.Server.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("[boot] shutting down")
	srv.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
}
