package repository

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/config"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/database"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/domain/model"
	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/fingerprint"

	"github.com/jackc/pgx/v5/pgxpool"
)

// setupTestDB запускает PostgreSQL контейнер, применяет миграции.
// Возвращает pgxpool.Pool и функцию очистки.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("puremeds_test"),
		postgres.WithUsername("puremeds"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}

	// Настраиваем env для config.Load()
	os.Setenv("PM_DB_HOST", host)
	os.Setenv("PM_DB_PORT", port.Port())
	os.Setenv("PM_DB_NAME", "puremeds_test")
	os.Setenv("PM_DB_USER", "puremeds")
	os.Setenv("PM_DB_PASSWORD", "test-password")
	os.Setenv("PM_DB_SSL_MODE", "disable")
	os.Setenv("PM_JWKS_URL", "http://localhost:8080/jwks.json")
	os.Setenv("PM_LEDGER_CONTRACT_ADDRESS", "0x0000000000000000000000000000000000000001")
	os.Setenv("PM_LEDGER_PRIVATE_KEY", "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	os.Setenv("PM_STRIPE_SECRET_KEY", "sk_test_dummy")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// Применяем миграции
	if err := database.Migrate(cfg, logger); err != nil {
		t.Fatalf("Ошибка миграций: %v", err)
	}

	// Подключаемся
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Ошибка подключения: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	return pool
}

// testMedicine создаёт препарат с валидным отпечатком.
func testMedicine(t *testing.T, batchID string) *model.Medicine {
	t.Helper()

	expiry := time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC)
	fp, err := fingerprint.Derive(batchID, "HealWell Labs", expiry, "Paracetamol 500mg")
	if err != nil {
		t.Fatalf("Ошибка вычисления отпечатка: %v", err)
	}

	return &model.Medicine{
		ID:             uuid.NewString(),
		ProductName:    "Paracetamol 500mg",
		ChemicalName:   "Paracetamol",
		Manufacturer:   "HealWell Labs",
		Price:          4.99,
		Purpose:        "Pain relief",
		SideEffects:    []string{"Nausea", "Dizziness"},
		Category:       "Painkillers",
		AvailableStock: 100,
		BatchID:        batchID,
		ExpiryDate:     expiry,
		Fingerprint:    fp,
	}
}

// --- Тесты MedicineRepository ---

func TestMedicineCRUD(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewMedicineRepository(pool)

	m := testMedicine(t, "PM-1001")

	// Create
	if err := repo.Create(ctx, m); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	if m.CreatedAt.IsZero() {
		t.Error("CreatedAt не установлен")
	}

	// Дубликат партии — конфликт
	dup := testMedicine(t, "PM-1001")
	dup.ID = uuid.NewString()
	if err := repo.Create(ctx, dup); err == nil || !errors.Is(err, ErrConflict) {
		t.Errorf("Дубликат партии: ожидали ErrConflict, получили: %v", err)
	}

	// GetByID
	got, err := repo.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetByID() ошибка: %v", err)
	}
	if got.ProductName != "Paracetamol 500mg" {
		t.Errorf("ProductName = %q, хотели %q", got.ProductName, "Paracetamol 500mg")
	}
	if len(got.SideEffects) != 2 {
		t.Errorf("SideEffects = %v, хотели 2 элемента", got.SideEffects)
	}

	// GetByBatchID и GetByFingerprint
	if _, err := repo.GetByBatchID(ctx, "PM-1001"); err != nil {
		t.Errorf("GetByBatchID() ошибка: %v", err)
	}
	byFP, err := repo.GetByFingerprint(ctx, m.Fingerprint)
	if err != nil {
		t.Fatalf("GetByFingerprint() ошибка: %v", err)
	}
	if byFP.Fingerprint != m.Fingerprint {
		t.Errorf("Fingerprint = %q, хотели %q", byFP.Fingerprint, m.Fingerprint)
	}

	// List с фильтром по категории
	category := "Painkillers"
	list, err := repo.List(ctx, MedicineFilter{Category: &category}, 10, 0)
	if err != nil {
		t.Fatalf("List() ошибка: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("List() вернул %d записей, хотели 1", len(list))
	}

	// List с поиском по подстроке
	search := "paracet"
	list2, err := repo.List(ctx, MedicineFilter{Search: &search}, 10, 0)
	if err != nil {
		t.Fatalf("List() с поиском ошибка: %v", err)
	}
	if len(list2) != 1 {
		t.Errorf("Поиск вернул %d записей, хотели 1", len(list2))
	}

	// Delete
	if err := repo.Delete(ctx, m.ID); err != nil {
		t.Fatalf("Delete() ошибка: %v", err)
	}
	if _, err := repo.GetByID(ctx, m.ID); err != ErrNotFound {
		t.Errorf("После Delete ожидали ErrNotFound, получили: %v", err)
	}
}

func TestMedicineStock(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewMedicineRepository(pool)

	m := testMedicine(t, "PM-2001")
	m.AvailableStock = 5
	if err := repo.Create(ctx, m); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	// Списание в пределах остатка
	if err := repo.DecrementStock(ctx, m.ID, 3); err != nil {
		t.Fatalf("DecrementStock() ошибка: %v", err)
	}

	// Списание больше остатка — конфликт
	if err := repo.DecrementStock(ctx, m.ID, 10); err == nil || !errors.Is(err, ErrConflict) {
		t.Errorf("Списание сверх остатка: ожидали ErrConflict, получили: %v", err)
	}

	// Возврат остатка
	if err := repo.IncrementStock(ctx, m.ID, 3); err != nil {
		t.Fatalf("IncrementStock() ошибка: %v", err)
	}

	got, _ := repo.GetByID(ctx, m.ID)
	if got.AvailableStock != 5 {
		t.Errorf("AvailableStock = %d, хотели 5", got.AvailableStock)
	}

	// Списание у несуществующего препарата
	if err := repo.DecrementStock(ctx, uuid.NewString(), 1); err != ErrNotFound {
		t.Errorf("Ожидали ErrNotFound, получили: %v", err)
	}
}

// --- Тесты OrderRepository ---

func TestOrderCRUD(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	medRepo := NewMedicineRepository(pool)
	repo := NewOrderRepository(pool)

	m := testMedicine(t, "PM-3001")
	if err := medRepo.Create(ctx, m); err != nil {
		t.Fatalf("Создание препарата: %v", err)
	}

	o := &model.Order{
		ID:       uuid.NewString(),
		OrderRef: "ORD-1735000000-1234",
		UserID:   "user-1",
		Customer: model.CustomerInfo{
			FirstName: "Ali", LastName: "Khan", Email: "ali@example.com",
			Phone: "+920000000000", Address: "Street 1", City: "Karachi",
		},
		Items: []model.OrderItem{
			{MedicineID: m.ID, ProductName: m.ProductName, Quantity: 2, Price: m.Price},
		},
		Subtotal:      9.98,
		Shipping:      2.00,
		TotalAmount:   11.98,
		PaymentMethod: model.PaymentMethodCOD,
		Status:        model.OrderStatusPending,
	}

	// Create
	if err := repo.Create(ctx, o); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	// GetByID с позициями
	got, err := repo.GetByID(ctx, o.ID)
	if err != nil {
		t.Fatalf("GetByID() ошибка: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].Quantity != 2 {
		t.Errorf("Items = %+v, хотели 1 позицию с количеством 2", got.Items)
	}
	if got.OrderRef != "ORD-1735000000-1234" {
		t.Errorf("OrderRef = %q", got.OrderRef)
	}

	// ListByUser
	list, err := repo.ListByUser(ctx, "user-1", 10, 0)
	if err != nil {
		t.Fatalf("ListByUser() ошибка: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("ListByUser() вернул %d заказов, хотели 1", len(list))
	}

	// UpdateStatus
	if err := repo.UpdateStatus(ctx, o.ID, model.OrderStatusShipped); err != nil {
		t.Fatalf("UpdateStatus() ошибка: %v", err)
	}
	got2, _ := repo.GetByID(ctx, o.ID)
	if got2.Status != model.OrderStatusShipped {
		t.Errorf("Status = %q, хотели %q", got2.Status, model.OrderStatusShipped)
	}

	// Count по статусу
	status := model.OrderStatusShipped
	count, err := repo.Count(ctx, &status)
	if err != nil {
		t.Fatalf("Count() ошибка: %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, хотели 1", count)
	}

	// Delete — позиции удаляются каскадно
	if err := repo.Delete(ctx, o.ID); err != nil {
		t.Fatalf("Delete() ошибка: %v", err)
	}
	if _, err := repo.GetByID(ctx, o.ID); err != ErrNotFound {
		t.Errorf("После Delete ожидали ErrNotFound, получили: %v", err)
	}
}

// --- Тесты ComplaintRepository ---

func TestComplaintCRUD(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewComplaintRepository(pool)

	c := &model.Complaint{
		ID:           uuid.NewString(),
		ComplaintRef: "ALT-12345",
		UserID:       "user-2",
		MedicineName: "Ibuprofen 200mg",
		BatchID:      "PM-9999",
		Description:  "QR code does not scan",
		Status:       model.ComplaintStatusPending,
	}

	// Create
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	// RefExists
	exists, err := repo.RefExists(ctx, "ALT-12345")
	if err != nil {
		t.Fatalf("RefExists() ошибка: %v", err)
	}
	if !exists {
		t.Error("RefExists() = false, хотели true")
	}
	exists, _ = repo.RefExists(ctx, "ALT-00000")
	if exists {
		t.Error("RefExists() для незанятого номера = true")
	}

	// UpdateStatus
	if err := repo.UpdateStatus(ctx, c.ID, model.ComplaintStatusResolved, "Batch recalled"); err != nil {
		t.Fatalf("UpdateStatus() ошибка: %v", err)
	}
	got, _ := repo.GetByID(ctx, c.ID)
	if got.Status != model.ComplaintStatusResolved || got.AdminRemarks != "Batch recalled" {
		t.Errorf("После UpdateStatus: Status=%q, AdminRemarks=%q", got.Status, got.AdminRemarks)
	}

	// List по статусу
	status := model.ComplaintStatusResolved
	list, err := repo.List(ctx, &status, 10, 0)
	if err != nil {
		t.Fatalf("List() ошибка: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("List() вернул %d жалоб, хотели 1", len(list))
	}

	// Delete
	if err := repo.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete() ошибка: %v", err)
	}
	if _, err := repo.GetByID(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() после удаления: %v, хотели ErrNotFound", err)
	}
	if err := repo.Delete(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Повторный Delete(): %v, хотели ErrNotFound", err)
	}
}

// --- Тесты SupplyChainRepository ---

func TestSupplyChainCRUD(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	medRepo := NewMedicineRepository(pool)
	repo := NewSupplyChainRepository(pool)

	m := testMedicine(t, "PM-4001")
	if err := medRepo.Create(ctx, m); err != nil {
		t.Fatalf("Создание препарата: %v", err)
	}

	sc := &model.SupplyChain{
		BatchID:          m.BatchID,
		ManufacturerName: m.Manufacturer,
		ExpiryDate:       m.ExpiryDate,
		StockRemaining:   m.AvailableStock,
		Stages:           model.DefaultSupplyStages(m.Manufacturer),
	}

	// Create
	if err := repo.Create(ctx, sc); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	// GetByBatchID — этапы восстанавливаются из JSONB
	got, err := repo.GetByBatchID(ctx, m.BatchID)
	if err != nil {
		t.Fatalf("GetByBatchID() ошибка: %v", err)
	}
	if got.Stages.Manufacturer.Name != "HealWell Labs" {
		t.Errorf("Stages.Manufacturer.Name = %q", got.Stages.Manufacturer.Name)
	}
	if !got.Stages.Platform.Verified || got.Stages.Platform.Name != "PureMeds" {
		t.Errorf("Stages.Platform = %+v", got.Stages.Platform)
	}

	// UpdateStock
	if err := repo.UpdateStock(ctx, m.BatchID, 42); err != nil {
		t.Fatalf("UpdateStock() ошибка: %v", err)
	}
	got2, _ := repo.GetByBatchID(ctx, m.BatchID)
	if got2.StockRemaining != 42 {
		t.Errorf("StockRemaining = %d, хотели 42", got2.StockRemaining)
	}

	// Удаление препарата каскадно удаляет цепочку
	if err := medRepo.Delete(ctx, m.ID); err != nil {
		t.Fatalf("Удаление препарата: %v", err)
	}
	if _, err := repo.GetByBatchID(ctx, m.BatchID); err != ErrNotFound {
		t.Errorf("После каскадного удаления ожидали ErrNotFound, получили: %v", err)
	}
}
