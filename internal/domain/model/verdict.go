package model

import (
	"time"

	"github.com/AbdulKarimBukhshAnsari/PureMeds-Backend/internal/ledger"
)

// VerificationResult — вердикт проверки подлинности. Эфемерный: собирается
// на каждый запрос и никогда не сохраняется.
type VerificationResult struct {
	// IsValid — итоговый вердикт подлинности.
	IsValid bool `json:"isValid"`
	// IsDistributed — известен ли отпечаток локальному хранилищу платформы.
	IsDistributed bool `json:"isDistributedByPureMeds"`
	// IsExpired — истёк ли срок годности партии.
	IsExpired bool `json:"isExpired"`
	// DaysUntilExpiry — дней до истечения срока (0, если истёк).
	DaysUntilExpiry int `json:"daysUntilExpiry"`

	// Medicine — метаданные препарата (только для известных отпечатков).
	Medicine *MedicineSummary `json:"product,omitempty"`
	// LedgerCheck — результат сверки с реестром; nil, если сверка
	// не выполнена (реестр недоступен) или отпечаток неизвестен локально.
	LedgerCheck *ledger.Record `json:"ledgerVerification"`

	// Fingerprint — проверяемый отпечаток.
	Fingerprint string `json:"hash"`
	// BatchID — код партии из QR-кода (если проверка шла по изображению).
	BatchID string `json:"batchId,omitempty"`

	// Message — готовое для отображения сообщение: валидность,
	// близость срока годности и статус сверки с реестром.
	Message string `json:"message"`
	// VerifiedAt — момент проверки.
	VerifiedAt time.Time `json:"verifiedAt"`
}
