package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rentalhub/config"
	"rentalhub/pkg/api"
	"rentalhub/pkg/bot"
	"rentalhub/pkg/cache"
	"rentalhub/pkg/logger"
	"rentalhub/pkg/mailer"
	"rentalhub/pkg/password"
	"rentalhub/pkg/ratelimit"
	"rentalhub/pkg/token"
	"rentalhub/service"
	"rentalhub/storage/postgres"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.ServiceName, cfg.LoggerLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pgStore, err := postgres.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to connect to postgres", logger.Error(err))
		os.Exit(1)
	}
	defer pgStore.Close()

	var throttle ratelimit.Throttle = ratelimit.Nop{}
	if cfg.RedisEnabled() {
		rdb := cache.NewCache(cfg.RedisAddr(), cfg.RedisPassword)
		if err := rdb.Ping(ctx); err != nil {
			log.Error("failed to connect to redis", logger.Error(err))
			os.Exit(1)
		}
		defer rdb.Close()
		throttle = ratelimit.NewLimiter(rdb, cfg.OTPWindow, cfg.OTPMaxPerWindow, cfg.OTPCooldown)
	} else {
		log.Warning("REDIS_HOST is empty, OTP requests are not rate limited")
	}

	var sender mailer.Sender
	if cfg.SMTPDisabled {
		sender = mailer.NewLogSender(log)
	} else {
		sender = mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}, log)
	}

	tokens := token.NewManager(cfg.JWTSecret, cfg.JWTTTL)
	services := service.New(pgStore, service.Deps{
		Mailer:   sender,
		Hasher:   password.NewBcrypt(cfg.PasswordHashCost),
		Tokens:   tokens,
		Throttle: throttle,
		OTPTTL:   cfg.OTPTTL,
		BaseURL:  cfg.FrontendBaseURL,
	}, log)

	server := api.NewServer(cfg.AppPort, api.NewRouter(services, tokens, log), log)
	go func() {
		if err := server.Run(); err != nil {
			log.Error("http server stopped", logger.Error(err))
			stop()
		}
	}()

	if cfg.AdminBotToken != "" {
		adminBot, err := bot.New(&cfg, services, log)
		if err != nil {
			log.Error("failed to initialize admin bot", logger.Error(err))
			os.Exit(1)
		}
		go adminBot.Start()
		defer adminBot.Stop()
	}

	log.Info("🚀 rentalhub is running")
	<-ctx.Done()

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown", logger.Error(err))
	}
}
