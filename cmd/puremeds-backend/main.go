// Точка входа бэкенда PureMeds — аптечный каталог с проверкой
// подлинности препаратов по распределённому реестру.
// Загружает конфигурацию, подключается к PostgreSQL, применяет миграции,
// инициализирует клиент реестра и Stripe, создаёт сервисный слой и API
// handlers, запускает topologymetrics и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/api/handlers"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/api/middleware"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/config"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/database"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/ledger"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/repository"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/server"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/service"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("PureMeds Backend запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	if os.Getenv("PM_DEPHEALTH_GROUP") == "" {
		logger.Warn("PM_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode).
	// Проверка здоровья PostgreSQL идёт через существующий пул соединений,
	// что позволяет обнаружить его исчерпание.
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Клиент реестра (смарт-контракт MedicineRegistry)
	ledgerClient, err := ledger.NewEthereumClient(
		ctx,
		cfg.LedgerRPCURL,
		cfg.LedgerContractAddress,
		cfg.LedgerPrivateKey,
		cfg.LedgerCallTimeout,
		logger,
	)
	if err != nil {
		logger.Error("Ошибка создания клиента реестра", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer ledgerClient.Close()

	// 6. Repositories
	medicineRepo := repository.NewMedicineRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	complaintRepo := repository.NewComplaintRepository(pool)
	supplyChainRepo := repository.NewSupplyChainRepository(pool)
	dashboardRepo := repository.NewDashboardRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	// 7. Кэш препаратов по отпечатку (горячий путь проверки подлинности)
	medicineCache := service.NewMedicineCache(cfg.CacheSize, cfg.CacheTTL)

	// 8. Services
	medicinesSvc := service.NewMedicineService(
		medicineRepo, supplyChainRepo, txRunner,
		medicineCache, ledgerClient,
		cfg.ArtifactDir,
		logger,
	)
	verificationSvc := service.NewVerificationService(
		medicineRepo, medicineCache, ledgerClient,
		logger,
	)
	ordersSvc := service.NewOrderService(
		orderRepo, supplyChainRepo, txRunner,
		logger,
	)
	paymentsSvc := service.NewPaymentService(
		paymentRepo, orderRepo,
		cfg.StripeSecretKey, cfg.ClientURL,
		logger,
	)
	complaintsSvc := service.NewComplaintService(complaintRepo, cfg.ArtifactDir, logger)
	supplyChainsSvc := service.NewSupplyChainService(supplyChainRepo, logger)
	dashboardSvc := service.NewDashboardService(dashboardRepo, orderRepo, medicineRepo, logger)

	// 9. JWT middleware (JWKS провайдера идентификации)
	jwtAuth, err := middleware.NewJWTAuth(
		cfg.JWKSURL,
		cfg.JWTIssuer,
		cfg.JWKSClientTimeout,
		cfg.JWKSRefreshInterval,
		cfg.JWTLeeway,
		logger,
	)
	if err != nil {
		logger.Error("Ошибка создания JWT middleware", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer jwtAuth.Close()
	logger.Info("JWT middleware инициализирован",
		slog.String("jwks_url", cfg.JWKSURL),
		slog.String("issuer", cfg.JWTIssuer),
	)

	// 10. API handlers
	pgChecker := database.NewReadinessChecker(pool)
	h := &server.Handlers{
		Health:       handlers.NewHealthHandler(pgChecker),
		Medicines:    handlers.NewMedicineHandler(medicinesSvc, logger),
		Verification: handlers.NewVerificationHandler(verificationSvc, logger),
		Orders:       handlers.NewOrderHandler(ordersSvc, logger),
		Payments:     handlers.NewPaymentHandler(paymentsSvc, logger),
		Complaints:   handlers.NewComplaintHandler(complaintsSvc, logger),
		SupplyChain:  handlers.NewSupplyChainHandler(supplyChainsSvc, logger),
		Dashboard:    handlers.NewDashboardHandler(dashboardSvc, logger),
	}

	// 11. topologymetrics — мониторинг зависимостей (PostgreSQL + ledger RPC)
	var dephealthSvc *service.DephealthService
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"puremeds-backend",
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseURL(),
		cfg.LedgerRPCURL,
		cfg.DephealthCheckInterval,
		cfg.DephealthIsEntry,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else {
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
		} else {
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 12. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, h, jwtAuth)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 13. Graceful shutdown фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("PureMeds Backend остановлен")
}
