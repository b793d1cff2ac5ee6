// Пакет model — доменные модели бэкенда PureMeds.
package model

import "time"

// Medicine — препарат каталога. Поля идентичности партии (BatchID,
// Manufacturer, ExpiryDate, ProductName) неизменяемы после регистрации:
// из них выводится отпечаток подлинности.
type Medicine struct {
	// ID — UUID записи.
	ID string `json:"id"`
	// ProductName — торговое название препарата.
	ProductName string `json:"productName"`
	// ChemicalName — действующее вещество.
	ChemicalName string `json:"chemicalName"`
	// Manufacturer — производитель.
	Manufacturer string `json:"manufacturer"`
	// Price — цена за упаковку.
	Price float64 `json:"price"`
	// Purpose — назначение препарата.
	Purpose string `json:"purpose"`
	// SideEffects — побочные эффекты.
	SideEffects []string `json:"sideEffects"`
	// Category — категория каталога.
	Category string `json:"category"`
	// ImagePath — путь к изображению упаковки.
	ImagePath string `json:"productImage"`
	// AvailableStock — доступный остаток.
	AvailableStock int `json:"availableStock"`
	// BatchID — уникальный код партии в формате PM-<цифры>.
	BatchID string `json:"batchId"`
	// ExpiryDate — срок годности партии.
	ExpiryDate time.Time `json:"expiryDate"`
	// Fingerprint — SHA-256 отпечаток партии (64 hex-символа, уникален).
	Fingerprint string `json:"hash"`
	// QRCodePath — путь к сгенерированному QR-артефакту.
	QRCodePath string `json:"qrCode"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Summary возвращает метаданные препарата для вердикта проверки.
func (m *Medicine) Summary() *MedicineSummary {
	return &MedicineSummary{
		ProductName:  m.ProductName,
		ChemicalName: m.ChemicalName,
		Manufacturer: m.Manufacturer,
		BatchID:      m.BatchID,
		Category:     m.Category,
		ExpiryDate:   m.ExpiryDate,
	}
}

// MedicineSummary — подмножество полей препарата, прикладываемое к вердикту.
type MedicineSummary struct {
	ProductName  string    `json:"productName"`
	ChemicalName string    `json:"chemicalName"`
	Manufacturer string    `json:"manufacturer"`
	BatchID      string    `json:"batchId"`
	Category     string    `json:"category"`
	ExpiryDate   time.Time `json:"expiryDate"`
}
