package model

import "time"

// Статусы жалобы.
const (
	ComplaintStatusPending  = "Pending"
	ComplaintStatusReviewed = "Reviewed"
	ComplaintStatusResolved = "Resolved"
	ComplaintStatusInvalid  = "Invalid"
)

// ValidComplaintStatus сообщает, является ли статус жалобы допустимым.
func ValidComplaintStatus(s string) bool {
	switch s {
	case ComplaintStatusPending, ComplaintStatusReviewed,
		ComplaintStatusResolved, ComplaintStatusInvalid:
		return true
	}
	return false
}

// Complaint — жалоба покупателя на подозрительный препарат.
type Complaint struct {
	// ID — UUID записи.
	ID string `json:"id"`
	// ComplaintRef — внешний номер жалобы (ALT-<5 цифр>, уникален).
	ComplaintRef string `json:"complaintId"`
	// UserID — идентификатор пользователя из JWT.
	UserID string `json:"userId"`

	MedicineName string `json:"medicineName"`
	MedicineDose string `json:"medicineDose"`
	Manufacturer string `json:"manufacturer"`
	BatchID      string `json:"batchId"`
	// ManufactureDate и ExpiryDate — как напечатаны на упаковке,
	// без нормализации: жалоба фиксирует то, что видит покупатель.
	ManufactureDate string `json:"manufacturerDate"`
	ExpiryDate      string `json:"expiryDate"`
	Store           string `json:"store"`
	City            string `json:"city"`
	// QRCodePath — путь к загруженному фото QR-кода.
	QRCodePath  string `json:"qrCode"`
	Description string `json:"description"`

	Status       string `json:"status"`
	AdminRemarks string `json:"adminRemarks"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
