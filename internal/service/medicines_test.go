package service

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestValidateRegisterInput(t *testing.T) {
	valid := func() *RegisterMedicineInput {
		return &RegisterMedicineInput{
			ProductName:    "Paracetamol 500mg",
			Manufacturer:   "HealWell Labs",
			Category:       "Painkillers",
			Price:          4.99,
			AvailableStock: 100,
			BatchID:        "PM-1001",
			ExpiryDate:     "2027-06-01",
		}
	}

	if err := validateRegisterInput(valid()); err != nil {
		t.Fatalf("Валидный ввод отклонён: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*RegisterMedicineInput)
	}{
		{"пустое название", func(in *RegisterMedicineInput) { in.ProductName = "  " }},
		{"пустой производитель", func(in *RegisterMedicineInput) { in.Manufacturer = "" }},
		{"пустая категория", func(in *RegisterMedicineInput) { in.Category = "" }},
		{"отрицательная цена", func(in *RegisterMedicineInput) { in.Price = -1 }},
		{"отрицательный остаток", func(in *RegisterMedicineInput) { in.AvailableStock = -5 }},
		{"код партии без префикса", func(in *RegisterMedicineInput) { in.BatchID = "XX-1001" }},
		{"код партии с буквами", func(in *RegisterMedicineInput) { in.BatchID = "PM-12a4" }},
		{"пустой срок годности", func(in *RegisterMedicineInput) { in.ExpiryDate = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(in)
			if err := validateRegisterInput(in); !errors.Is(err, ErrValidation) {
				t.Errorf("Ожидали ErrValidation, получили: %v", err)
			}
		})
	}
}

func TestWriteArtifact(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "artifacts")
	svc := &MedicineService{artifactDir: dir, logger: testLogger()}

	path, err := svc.writeArtifact("PM-1001", []byte("png-bytes"))
	if err != nil {
		t.Fatalf("writeArtifact() ошибка: %v", err)
	}
	if filepath.Base(path) != "PM-1001.png" {
		t.Errorf("Имя артефакта = %q, хотели PM-1001.png", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Артефакт не записан: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("Содержимое артефакта = %q", data)
	}
}
