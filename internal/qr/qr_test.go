package qr

import (
	"errors"
	"strings"
	"testing"

	"github.com/skip2/go-qrcode"
)

const testFingerprint = "a1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d4e5f60718293a4b5c6d7e8f90"

func TestEncodeDecode_RoundTrip(t *testing.T) {
	png, err := Encode(testFingerprint, "PM-12345")
	if err != nil {
		t.Fatalf("Encode() вернул ошибку: %v", err)
	}
	if len(png) == 0 {
		t.Fatal("Encode() вернул пустое изображение")
	}

	payload, err := Decode(png)
	if err != nil {
		t.Fatalf("Decode() вернул ошибку: %v", err)
	}

	if payload.Hash != testFingerprint {
		t.Errorf("Hash = %q, ожидается %q", payload.Hash, testFingerprint)
	}
	if payload.BatchID != "PM-12345" {
		t.Errorf("BatchID = %q, ожидается PM-12345", payload.BatchID)
	}
	if payload.Timestamp == "" {
		t.Error("Timestamp пуст")
	}
}

func TestEncode_MissingFields(t *testing.T) {
	if _, err := Encode("", "PM-1"); err == nil {
		t.Error("Encode с пустым отпечатком: ожидается ошибка")
	}
	if _, err := Encode(testFingerprint, ""); err == nil {
		t.Error("Encode с пустым кодом партии: ожидается ошибка")
	}
}

func TestDecode_UnreadableImage(t *testing.T) {
	cases := map[string][]byte{
		"не изображение": []byte("definitely not a png"),
		"пустой вход":    {},
	}

	for name, data := range cases {
		_, err := Decode(data)
		if !errors.Is(err, ErrUnreadableImage) {
			t.Errorf("%s: err = %v, ожидается ErrUnreadableImage", name, err)
		}
	}
}

func TestDecode_MalformedPayload(t *testing.T) {
	// QR-символ валиден, но содержимое не JSON.
	png, err := qrcode.Encode("plain text, not a payload", qrcode.Highest, 300)
	if err != nil {
		t.Fatalf("генерация тестового QR: %v", err)
	}

	_, err = Decode(png)
	if !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("err = %v, ожидается ErrMalformedPayload", err)
	}
}

func TestDecode_IncompletePayload(t *testing.T) {
	cases := map[string]string{
		"без отпечатка":   `{"batchId":"PM-12345","timestamp":"2026-01-01T00:00:00Z"}`,
		"без кода партии": `{"hash":"` + testFingerprint + `"}`,
		"пустой объект":   `{}`,
	}

	for name, content := range cases {
		png, err := qrcode.Encode(content, qrcode.Highest, 300)
		if err != nil {
			t.Fatalf("%s: генерация тестового QR: %v", name, err)
		}
		if _, err := Decode(png); !errors.Is(err, ErrIncompletePayload) {
			t.Errorf("%s: err = %v, ожидается ErrIncompletePayload", name, err)
		}
	}
}

func TestDecode_TimestampInformational(t *testing.T) {
	// Payload без timestamp валиден: проверка использует только hash и batchId.
	content := `{"hash":"` + testFingerprint + `","batchId":"PM-7"}`
	png, err := qrcode.Encode(content, qrcode.Highest, 300)
	if err != nil {
		t.Fatalf("генерация тестового QR: %v", err)
	}

	payload, err := Decode(png)
	if err != nil {
		t.Fatalf("Decode() вернул ошибку: %v", err)
	}
	if !strings.EqualFold(payload.Hash, testFingerprint) {
		t.Errorf("Hash = %q, ожидается %q", payload.Hash, testFingerprint)
	}
}
