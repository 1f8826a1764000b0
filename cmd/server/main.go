package main

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/ngocthuan/blog-api/internal/config"
	"github.com/ngocthuan/blog-api/internal/database"
	"github.com/ngocthuan/blog-api/internal/handler"
	"github.com/ngocthuan/blog-api/internal/mailer"
	"github.com/ngocthuan/blog-api/internal/middleware"
	"github.com/ngocthuan/blog-api/internal/queue"
	"github.com/ngocthuan/blog-api/internal/repository"
	"github.com/ngocthuan/blog-api/internal/router"
	"github.com/ngocthuan/blog-api/internal/token"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()
	if cfg.Env == "dev" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		log.SetLevel(logrus.DebugLevel)
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("database connect failed")
	}
	defer db.Close()

	if err := database.Migrate(context.Background(), db); err != nil {
		log.WithError(err).Fatal("migrations failed")
	}

	tokens, err := token.New(
		token.TypeConfig{Secret: cfg.AccessSecret, TTL: cfg.AccessTTL},
		token.TypeConfig{Secret: cfg.RefreshSecret, TTL: cfg.RefreshTTL},
	)
	if err != nil {
		log.WithError(err).Fatal("token service config invalid")
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unreachable; rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	mail := mailer.NewAMQP(cfg.AMQPURL, cfg.MailTimeout)

	deps := router.Deps{
		Auth: handler.NewAuthHandler(users, tokens, mail, log,
			cfg.BcryptCost, cfg.ResetTTL, cfg.MailFrom),
		Users:     handler.NewCrudHandler(db, repository.NewUserResource(cfg.BcryptCost)),
		Blogs:     handler.NewCrudHandler(db, repository.NewBlogResource()),
		Protect:   middleware.Protect(tokens, users),
		RateLimit: middleware.RateLimit(config.LoadRateLimitConfig(), rdb),
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.NewErrorHandler(log)
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.AllowedOrigins}))
	e.Use(middleware.RequestLogger(log))

	router.Register(e, deps)

	go queue.StartMailConsumer(cfg.AMQPURL, log)

	addr := ":" + cfg.Port
	log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("server starting")
	if err := e.Start(addr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
