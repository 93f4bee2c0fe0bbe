// equiptrak-seed — создание или обновление пользователя EquipTrak.
// Использует те же переменные EQ_* для подключения к PostgreSQL, что и сервис.
//
//	equiptrak-seed -email admin@example.com -name Admin -role admin
//	equiptrak-seed -email bob@acme.test -name Bob -role customer -company-name "Acme Garage"
//
// Пароль берётся из -password или из EQ_SEED_PASSWORD.
// С -company-name компания и пользователь создаются в одной транзакции.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5"

	"github.com/Paul-BWS/equiptrak/internal/config"
	"github.com/Paul-BWS/equiptrak/internal/database"
	"github.com/Paul-BWS/equiptrak/internal/domain/model"
	"github.com/Paul-BWS/equiptrak/internal/domain/rbac"
	"github.com/Paul-BWS/equiptrak/internal/repository"
	"github.com/Paul-BWS/equiptrak/internal/service"
)

func main() {
	email := flag.String("email", "", "email пользователя")
	name := flag.String("name", "", "имя пользователя")
	password := flag.String("password", os.Getenv("EQ_SEED_PASSWORD"), "пароль (по умолчанию EQ_SEED_PASSWORD)")
	role := flag.String("role", rbac.RoleAdmin, "роль: admin, engineer, customer")
	companyID := flag.String("company", "", "UUID существующей компании (для customer)")
	companyName := flag.String("company-name", "", "создать компанию с этим названием и привязать пользователя")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := config.SetupLogger(cfg)

	if err := run(context.Background(), cfg, logger, seedInput{
		user: service.UserInput{
			Email:     *email,
			Name:      *name,
			Password:  *password,
			Role:      *role,
			CompanyID: *companyID,
		},
		companyName: *companyName,
	}); err != nil {
		logger.Error("Ошибка создания пользователя", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

type seedInput struct {
	user        service.UserInput
	companyName string
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, in seedInput) error {
	if in.companyName != "" && in.user.CompanyID != "" {
		return fmt.Errorf("флаги -company и -company-name взаимоисключающие")
	}

	if err := database.Migrate(cfg, logger); err != nil {
		return err
	}
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	return repository.NewTxRunner(pool).RunInTx(ctx, func(tx pgx.Tx) error {
		user := in.user
		if in.companyName != "" {
			companies := service.NewCompanyService(
				repository.NewCompanyRepository(tx),
				repository.NewContactRepository(tx),
				repository.NewEquipmentRepository(tx),
				repository.NewServiceRecordRepository(tx),
				cfg.DueSoonWindow,
				logger,
			)
			c, err := companies.Create(ctx, &model.Company{Name: in.companyName})
			if err != nil {
				return err
			}
			user.CompanyID = c.ID
		}

		users := service.NewAuthService(repository.NewUserRepository(tx), nil, logger)
		u, err := users.UpsertUser(ctx, user)
		if err != nil {
			return err
		}

		company := ""
		if u.CompanyID != nil {
			company = *u.CompanyID
		}
		fmt.Printf("Пользователь %s сохранён: id=%s role=%s company_id=%s\n", u.Email, u.ID, u.Role, company)
		return nil
	})
}
