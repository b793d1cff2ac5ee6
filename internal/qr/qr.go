// Пакет qr — кодек QR-артефактов для проверки подлинности медикаментов.
//
// Encode встраивает отпечаток и код партии в PNG с максимальным уровнем
// коррекции ошибок (QR-код печатается на упаковке и сканируется камерой
// телефона в неидеальных условиях). Decode восстанавливает payload из
// сфотографированного изображения, различая три стадии отказа:
// нечитаемое изображение, некорректный формат данных, неполный payload.
package qr

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"time"

	_ "image/jpeg" // регистрация декодера JPEG (фото с телефона)
	_ "image/png"  // регистрация декодера PNG

	"github.com/makiuchi-d/gozxing"
	zxqrcode "github.com/makiuchi-d/gozxing/qrcode"
	"github.com/skip2/go-qrcode"
)

// Ошибки декодирования, каждая соответствует своей стадии отказа.
var (
	// ErrUnreadableImage — QR-символ не найден или не декодируется.
	ErrUnreadableImage = errors.New("изображение QR-кода не читается")
	// ErrMalformedPayload — символ декодирован, но содержимое не является корректными структурированными данными.
	ErrMalformedPayload = errors.New("некорректный формат данных QR-кода")
	// ErrIncompletePayload — данные структурированы, но отсутствует отпечаток или код партии.
	ErrIncompletePayload = errors.New("QR-код не содержит полных данных о медикаменте")
)

// imageSize — размер стороны генерируемого PNG в пикселях.
const imageSize = 300

// Payload — структурированные данные, встраиваемые в QR-код.
// Timestamp информационный: проверка использует только Hash и BatchID.
type Payload struct {
	Hash      string `json:"hash"`
	BatchID   string `json:"batchId"`
	Timestamp string `json:"timestamp"`
}

// Encode сериализует payload {hash, batchId, timestamp} в JSON и рендерит
// его в PNG QR-код с уровнем коррекции ошибок Highest.
func Encode(fingerprint, batchCode string) ([]byte, error) {
	if fingerprint == "" || batchCode == "" {
		return nil, fmt.Errorf("%w: отпечаток и код партии обязательны", ErrIncompletePayload)
	}

	payload := Payload{
		Hash:      fingerprint,
		BatchID:   batchCode,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("сериализация payload: %w", err)
	}

	png, err := qrcode.Encode(string(data), qrcode.Highest, imageSize)
	if err != nil {
		return nil, fmt.Errorf("генерация QR-кода: %w", err)
	}
	return png, nil
}

// Decode локализует QR-символ на изображении, декодирует его и разбирает
// восстановленный текст обратно в Payload.
func Decode(imageBytes []byte) (*Payload, error) {
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}

	reader := zxqrcode.NewQRCodeReader()
	result, err := reader.Decode(bmp, map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: QR-символ не найден", ErrUnreadableImage)
	}

	var payload Payload
	if err := json.Unmarshal([]byte(result.GetText()), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if payload.Hash == "" || payload.BatchID == "" {
		return nil, ErrIncompletePayload
	}
	return &payload, nil
}
