package main

import (
	"context"
	"os"

	"rentalhub/config"
	"rentalhub/pkg/logger"
	"rentalhub/pkg/mailer"
	"rentalhub/pkg/password"
	"rentalhub/service"
	"rentalhub/storage/postgres"
)

// seed_admin creates the administrator identity from SEED_ADMIN_* settings.
// Administrators cannot sign up through the API.
func main() {
	cfg := config.Load()
	log := logger.New(cfg.ServiceName, cfg.LoggerLevel)
	ctx := context.Background()

	pg, err := postgres.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to connect to postgres", logger.Error(err))
		os.Exit(1)
	}
	defer pg.Close()

	accounts := service.NewAccountService(pg, service.Deps{
		Mailer: mailer.NewLogSender(log),
		Hasher: password.NewBcrypt(cfg.PasswordHashCost),
	}, log)

	admin, err := accounts.SeedAdmin(ctx, cfg.SeedAdminEmail, cfg.SeedAdminPassword, cfg.SeedAdminName)
	if err != nil {
		log.Error("failed to seed admin", logger.Error(err))
		os.Exit(1)
	}
	log.Info("admin ready, set ADMIN_IDENTITY_ID to use the admin bot", logger.String("identity_id", admin.ID))
}
