package model

import "time"

// SupplyStage — этап цепочки поставок партии.
type SupplyStage struct {
	Verified bool   `json:"verified"`
	Name     string `json:"name"`
}

// SupplyStages — фиксированный набор этапов цепочки поставок.
type SupplyStages struct {
	RawMaterial    SupplyStage `json:"raw-material"`
	Manufacturer   SupplyStage `json:"Manufacturer"`
	QualityTesting SupplyStage `json:"Quality-testing"`
	Platform       SupplyStage `json:"Platform"`
	Customers      SupplyStage `json:"Customers"`
}

// SupplyChain — запись цепочки поставок партии, создаётся вместе
// с регистрацией препарата и живёт, пока существует партия.
type SupplyChain struct {
	// BatchID — код партии (первичный ключ, ссылается на medicines).
	BatchID string `json:"batchId"`
	// ManufacturerName — производитель партии.
	ManufacturerName string `json:"manufacturerName"`
	// ExpiryDate — срок годности партии.
	ExpiryDate time.Time `json:"expiryDate"`
	// StockRemaining — остаток партии, уменьшается при заказах.
	StockRemaining int `json:"stockRemaining"`
	// Stages — этапы цепочки поставок.
	Stages SupplyStages `json:"details"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DefaultSupplyStages возвращает этапы цепочки поставок для новой партии.
func DefaultSupplyStages(manufacturer string) SupplyStages {
	return SupplyStages{
		RawMaterial:    SupplyStage{Verified: true, Name: "ABC"},
		Manufacturer:   SupplyStage{Verified: true, Name: manufacturer},
		QualityTesting: SupplyStage{Verified: true, Name: "ABV"},
		Platform:       SupplyStage{Verified: true, Name: "PureMeds"},
		Customers:      SupplyStage{Verified: true, Name: ""},
	}
}
