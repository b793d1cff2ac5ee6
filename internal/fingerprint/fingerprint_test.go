package fingerprint

import (
	"encoding/hex"
	"strings"
	"testing"
	"time"
)

func TestDerive_Deterministic(t *testing.T) {
	expiry := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	first, err := Derive("PM-12345", "Acme", expiry, "Paracetamol")
	if err != nil {
		t.Fatalf("Derive() вернул ошибку: %v", err)
	}
	second, err := Derive("PM-12345", "Acme", expiry, "Paracetamol")
	if err != nil {
		t.Fatalf("Derive() вернул ошибку: %v", err)
	}

	if first != second {
		t.Errorf("повторный вызов дал другой отпечаток: %s != %s", first, second)
	}
	if len(first) != 64 {
		t.Errorf("длина отпечатка = %d, ожидается 64", len(first))
	}
	if first != strings.ToLower(first) {
		t.Errorf("отпечаток должен быть в нижнем регистре: %s", first)
	}
	if _, err := hex.DecodeString(first); err != nil {
		t.Errorf("отпечаток не является hex-строкой: %v", err)
	}
}

func TestDerive_EquivalentExpiryForms(t *testing.T) {
	// Одна и та же дата, поданная в разных текстовых формах,
	// даёт одинаковый отпечаток.
	forms := []string{
		"2026-01-01T00:00:00Z",
		"2026-01-01T00:00:00.000Z",
		"2026-01-01",
		"2026-01-01T03:00:00+03:00",
	}

	base, err := DeriveFromString("PM-12345", "Acme", forms[0], "Paracetamol")
	if err != nil {
		t.Fatalf("DeriveFromString(%q) вернул ошибку: %v", forms[0], err)
	}

	for _, form := range forms[1:] {
		got, err := DeriveFromString("PM-12345", "Acme", form, "Paracetamol")
		if err != nil {
			t.Fatalf("DeriveFromString(%q) вернул ошибку: %v", form, err)
		}
		if got != base {
			t.Errorf("форма %q дала отпечаток %s, ожидается %s", form, got, base)
		}
	}
}

func TestDerive_Sensitivity(t *testing.T) {
	expiry := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	base, err := Derive("PM-12345", "Acme", expiry, "Paracetamol")
	if err != nil {
		t.Fatalf("Derive() вернул ошибку: %v", err)
	}

	variants := []struct {
		name                         string
		batch, manufacturer, product string
		expiry                       time.Time
	}{
		{"другой код партии", "PM-12346", "Acme", "Paracetamol", expiry},
		{"другой производитель", "PM-12345", "Acme Labs", "Paracetamol", expiry},
		{"другое название", "PM-12345", "Acme", "Ibuprofen", expiry},
		{"другая дата", "PM-12345", "Acme", "Paracetamol", expiry.AddDate(0, 0, 1)},
	}

	seen := map[string]bool{base: true}
	for _, v := range variants {
		got, err := Derive(v.batch, v.manufacturer, v.expiry, v.product)
		if err != nil {
			t.Fatalf("%s: Derive() вернул ошибку: %v", v.name, err)
		}
		if seen[got] {
			t.Errorf("%s: коллизия отпечатков (%s)", v.name, got)
		}
		seen[got] = true
	}
}

func TestDerive_MissingFields(t *testing.T) {
	expiry := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name                         string
		batch, manufacturer, product string
		expiry                       time.Time
	}{
		{"пустой код партии", "", "Acme", "Paracetamol", expiry},
		{"пустой производитель", "PM-1", "", "Paracetamol", expiry},
		{"пустое название", "PM-1", "Acme", "", expiry},
		{"нулевая дата", "PM-1", "Acme", "Paracetamol", time.Time{}},
	}

	for _, c := range cases {
		if _, err := Derive(c.batch, c.manufacturer, c.expiry, c.product); err == nil {
			t.Errorf("%s: ожидается ошибка ErrInvalidInput", c.name)
		}
	}
}

func TestToBytes32(t *testing.T) {
	valid := strings.Repeat("ab", 32)

	got, err := ToBytes32(valid)
	if err != nil {
		t.Fatalf("ToBytes32(%q) вернул ошибку: %v", valid, err)
	}
	if got[0] != 0xab || got[31] != 0xab {
		t.Errorf("некорректное побайтовое представление: %x", got)
	}

	// Префикс 0x принимается.
	withPrefix, err := ToBytes32("0x" + valid)
	if err != nil {
		t.Fatalf("ToBytes32 с префиксом 0x вернул ошибку: %v", err)
	}
	if withPrefix != got {
		t.Errorf("результат с префиксом 0x отличается")
	}

	for _, bad := range []string{"", "abcd", strings.Repeat("g", 64), valid + "ab"} {
		if _, err := ToBytes32(bad); err == nil {
			t.Errorf("ToBytes32(%q): ожидается ErrMalformedHash", bad)
		}
	}
}

func TestValidBatchCode(t *testing.T) {
	for code, want := range map[string]bool{
		"PM-12345": true,
		"PM-1":     true,
		"PM-":      false,
		"pm-123":   false,
		"XX-123":   false,
		"PM-12a":   false,
	} {
		if got := ValidBatchCode(code); got != want {
			t.Errorf("ValidBatchCode(%q) = %v, ожидается %v", code, got, want)
		}
	}
}
