// Пакет server — HTTP-сервер бэкенда PureMeds с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на API Gateway.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/api/handlers"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/api/middleware"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/config"
)

// Handlers — набор обработчиков API, монтируемых сервером.
type Handlers struct {
	Health       *handlers.HealthHandler
	Medicines    *handlers.MedicineHandler
	Verification *handlers.VerificationHandler
	Orders       *handlers.OrderHandler
	Payments     *handlers.PaymentHandler
	Complaints   *handlers.ComplaintHandler
	SupplyChain  *handlers.SupplyChainHandler
	Dashboard    *handlers.DashboardHandler
}

// Server — HTTP-сервер бэкенда.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
// Публичные маршруты (health, метрики, каталог, проверка подлинности)
// не требуют JWT; заказы, платежи и жалобы — требуют; админские
// маршруты дополнительно требуют роль admin.
func New(cfg *config.Config, logger *slog.Logger, h *Handlers, jwtAuth *middleware.JWTAuth) *Server {
	router := chi.NewRouter()

	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	// --- Публичные маршруты ---

	router.Get("/health/live", h.Health.HealthLive)
	router.Get("/health/ready", h.Health.HealthReady)
	router.Get("/metrics", h.Health.GetMetrics)

	router.Route("/api/v1", func(r chi.Router) {
		// Каталог и проверка подлинности доступны без аккаунта:
		// покупатель сканирует QR до покупки.
		r.Get("/medicines", h.Medicines.List)
		r.Get("/medicines/featured", h.Medicines.Featured)
		r.Get("/medicines/batch/{batchId}", h.Medicines.GetByBatch)
		r.Get("/medicines/{id}", h.Medicines.Get)
		r.Get("/medicines/{id}/qrcode", h.Medicines.QRCode)
		r.Post("/verify/qrcode", h.Verification.VerifyImage)
		r.Post("/verify/hash", h.Verification.VerifyHash)
		r.Get("/supply-chain/{batchId}", h.SupplyChain.Get)

		// --- Маршруты, требующие аутентификации ---

		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware())

			r.Post("/orders", h.Orders.Create)
			r.Get("/orders", h.Orders.ListMine)
			r.Get("/orders/{id}", h.Orders.Get)
			r.Delete("/orders/{id}", h.Orders.Cancel)

			r.Post("/payments/checkout-session", h.Payments.CreateCheckoutSession)
			r.Get("/payments/session-status", h.Payments.SessionStatus)
			r.Post("/payments/cod", h.Payments.RecordCOD)
			r.Get("/payments/order/{orderId}", h.Payments.GetByOrder)
			r.Get("/payments", h.Payments.ListMine)

			r.Post("/complaints", h.Complaints.Create)
			r.Get("/complaints", h.Complaints.ListMine)
			r.Get("/complaints/{id}", h.Complaints.Get)
			r.Delete("/complaints/{id}", h.Complaints.Delete)

			// --- Маршруты администратора ---

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin())

				r.Post("/medicines", h.Medicines.Register)
				r.Delete("/medicines/{id}", h.Medicines.Delete)
				r.Get("/supply-chain", h.SupplyChain.List)

				r.Get("/admin/orders", h.Orders.ListAll)
				r.Patch("/admin/orders/{id}/status", h.Orders.UpdateStatus)
				r.Get("/admin/complaints", h.Complaints.ListAll)
				r.Patch("/admin/complaints/{id}/status", h.Complaints.UpdateStatus)
				r.Get("/admin/dashboard", h.Dashboard.Stats)
				r.Get("/admin/dashboard/orders.csv", h.Dashboard.ExportOrdersCSV)
				r.Get("/admin/dashboard/medicines.csv", h.Dashboard.ExportMedicinesCSV)
			})
		})
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
