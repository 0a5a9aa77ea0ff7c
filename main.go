package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "circulation-backend/docs"
	"circulation-backend/internal/catalog"
	"circulation-backend/internal/circulation"
	"circulation-backend/internal/fines"
	"circulation-backend/internal/notify"
	"circulation-backend/internal/platform/auth"
	"circulation-backend/internal/platform/db"
	"circulation-backend/internal/platform/idempotency"
	"circulation-backend/internal/platform/logger"
	"circulation-backend/internal/settings"
	"circulation-backend/internal/workers"
)

// @title                      Circulation API
// @version                    1.0
// @description                貸出・返却・延滞罰金・取り寄せ申請
// @BasePath                   /api/v1
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
func main() {
	// 設定読み込み
	cfg, err := db.LoadConfig(db.ConfigFilePath)
	if err != nil {
		panic(err)
	}
	logger.Init(cfg.Log.Level)

	mode := cfg.Mode
	if mode != "dev" && mode != "release" {
		fmt.Println("config: mode must be dev or release")
		os.Exit(2)
	}
	logger.Log.WithField("mode", mode).WithField("version", cfg.Version).Info("starting")

	if cfg.Auth.JWTSecret == "" {
		logger.Log.Fatal("auth.jwt_secret (or CIRC_JWT_SECRET) is required")
	}

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		logger.Log.WithError(err).Fatal("db connect failed")
	}
	defer conn.Close()
	logger.Log.WithField("db", cfg.DB.DBName).Info("connected to DB")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Idempotency-Key: Redis が無効・不通ならプロセス内メモリ
	var idem idempotency.Store = idempotency.NewMemoryStore()
	if cfg.Redis.Enabled {
		client, err := idempotency.ConnectRedis(cfg.Redis)
		if err != nil {
			logger.Log.WithError(err).Warn("redis unavailable, idempotency keys are kept in memory")
		} else {
			defer client.Close()
			idem = idempotency.NewRedisStore(client)
		}
	}

	// 通知: DB の受信箱 + websocket
	hub := notify.NewHub(nil)
	go hub.Run(ctx)
	inbox := notify.NewInbox(conn)
	notifier := notify.Multi{inbox, hub}

	runner := db.NewRunner(conn)
	authSvc := auth.NewService(auth.NewStore(conn), []byte(cfg.Auth.JWTSecret), time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
	settingsSvc := settings.NewService(settings.NewStore(conn))
	catalogStore := catalog.NewStore()
	catalogSvc := catalog.NewService(conn, runner, catalogStore)
	fineSvc := fines.NewService(conn, runner, fines.NewStore(), notifier, cfg.Currency)
	circSvc := circulation.NewService(circulation.Deps{
		DB:       conn,
		Tx:       runner,
		Issues:   circulation.NewIssueStore(),
		Requests: circulation.NewRequestStore(),
		Catalog:  catalogStore,
		Fines:    fineSvc,
		Settings: settingsSvc,
		Notifier: notifier,
		Currency: cfg.Currency,
	})

	sweeper := workers.NewSweeper(circSvc, time.Duration(cfg.Sweep.IntervalMinutes)*time.Minute, cfg.Sweep.RunOnStart)
	sweeper.Start(ctx)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if mode == "dev" {
		// CORS（開発中のみ必要）
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", idempotency.HeaderKey},
			ExposeHeaders:    []string{"Content-Length"},
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// ヘルス
	health := func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := conn.PingContext(pingCtx); err != nil {
			c.String(http.StatusServiceUnavailable, "db unavailable")
			return
		}
		c.String(http.StatusOK, "ok")
	}
	r.GET("/healthz", health)

	// /api/v1
	api := r.Group("/api/v1")
	api.GET("/healthz", health)
	auth.RegisterPublicRoutes(api, authSvc)

	authed := api.Group("", auth.RequireAuth(authSvc.Secret()), idempotency.Middleware(idem, idempotency.DefaultTTL))
	catalog.RegisterRoutes(authed, catalogSvc)
	circulation.RegisterRoutes(authed, circSvc)
	fines.RegisterRoutes(authed, fineSvc)
	notify.RegisterRoutes(authed, inbox, hub)

	admin := authed.Group("/admin", auth.RequireRole(auth.RoleAdmin))
	catalog.RegisterAdminRoutes(admin, catalogSvc)
	circulation.RegisterAdminRoutes(admin, circSvc)
	fines.RegisterAdminRoutes(admin, fineSvc)
	settings.RegisterRoutes(admin, settingsSvc)
	auth.RegisterAdminRoutes(admin, authSvc)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// TLS は証明書が設定されている時だけ
	certFile, keyFile := "", ""
	if cfg.Server.TLS.Cert != "" && cfg.Server.TLS.Key != "" {
		certFile = fmt.Sprintf("config/tls/%s/%s", mode, cfg.Server.TLS.Cert)
		keyFile = fmt.Sprintf("config/tls/%s/%s", mode, cfg.Server.TLS.Key)
	}

	go func() {
		var err error
		if certFile != "" {
			logger.Log.Infof("listening on https://%s", cfg.Server.Addr)
			err = srv.ListenAndServeTLS(certFile, keyFile)
		} else {
			logger.Log.Infof("listening on http://%s", cfg.Server.Addr)
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.WithError(err).Fatal("server stopped")
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	logger.Log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("shutdown failed")
	}
	sweeper.Wait()
}
