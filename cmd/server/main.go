package main // Entry point package

import (
    "context"
    "log"
    "os"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/forum-relay/internal/cache"
    "github.com/iliyamo/forum-relay/internal/config"
    "github.com/iliyamo/forum-relay/internal/database"
    "github.com/iliyamo/forum-relay/internal/handler"
    "github.com/iliyamo/forum-relay/internal/lock"
    "github.com/iliyamo/forum-relay/internal/middleware"
    "github.com/iliyamo/forum-relay/internal/queue"
    "github.com/iliyamo/forum-relay/internal/relay"
    "github.com/iliyamo/forum-relay/internal/repository"
    "github.com/iliyamo/forum-relay/internal/router"
    queue_publisher "github.com/iliyamo/forum-relay/internal/service"
    "github.com/iliyamo/forum-relay/internal/telegram"
)

func main() {
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("open database: %v", err)
    }
    defer func() { _ = db.Close() }()

    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    if err := database.EnsureSchema(ctx, db); err != nil {
        cancel()
        log.Fatalf("ensure schema: %v", err)
    }
    cancel()

    // Redis backs both the directory cache and the per-user lock. When
    // it is absent the cache degrades to store-only reads and the lock
    // falls back to its in-process variant, which is correct for a
    // single instance of the relay.
    rdb := config.NewRedisClient()
    lockCfg := config.LoadLockConfig()
    var locks lock.UserLock
    if rdb != nil {
        locks = lock.NewRedisLock(rdb, lockCfg)
    } else {
        log.Println("redis unavailable, using in-process user locks")
        locks = lock.NewLocalLock(lockCfg.AcquireTimeout)
    }
    dir := cache.New(rdb, config.LoadDirectoryCacheConfig())

    tg := telegram.New(cfg.BotToken, cfg.ForumID)
    store := repository.NewUserRecordRepo(db)

    svc := relay.New(store, dir, locks, tg, tg, relay.AuditFunc(queue_publisher.PublishAudit))

    // The audit consumer is optional: it drains relay.audit into the
    // log for setups without a dedicated consumer process.
    if os.Getenv("AUDIT_CONSUMER") == "true" {
        go func() {
            if err := queue.StartAuditConsumer(os.Getenv("RABBITMQ_URL")); err != nil {
                log.Printf("audit consumer stopped: %v", err)
            }
        }()
    }

    e := echo.New()
    adminLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
    webhookLimit := middleware.NewTokenBucket(config.LoadWebhookRateLimitConfig(), rdb)
    router.RegisterRoutes(e)
    router.RegisterWebhook(e, handler.NewWebhookHandler(cfg, svc, tg), webhookLimit)
    router.RegisterAuth(e, handler.NewAuthHandler(cfg))
    router.RegisterAdmin(e, handler.NewAdminHandler(svc), cfg.JWTSecret, adminLimit)

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)

    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
