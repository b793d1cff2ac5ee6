// Пакет fingerprint — детерминированный отпечаток партии медикамента.
//
// Отпечаток — SHA-256 от канонической конкатенации полей идентичности партии:
//
//	batchCode-manufacturer-expiryISO-productName
//
// Дата истечения срока годности нормализуется к строгому RFC 3339 UTC
// с миллисекундами ("2026-01-01T00:00:00.000Z"). Формат зафиксирован:
// любое изменение молча меняет все отпечатки уже выпущенных партий.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Ошибки деривации отпечатка.
var (
	// ErrInvalidInput — отсутствует или некорректно одно из полей идентичности партии.
	ErrInvalidInput = errors.New("некорректные входные данные для отпечатка")
	// ErrMalformedHash — дайджест неверной длины или с недопустимыми символами.
	ErrMalformedHash = errors.New("некорректный формат хэша")
)

// canonicalExpiryLayout — каноническое представление даты истечения срока
// годности при хэшировании: RFC 3339 UTC с миллисекундами.
const canonicalExpiryLayout = "2006-01-02T15:04:05.000Z"

// delimiter — фиксированный разделитель полей в хэшируемой строке.
const delimiter = "-"

// batchCodePattern — формат кода партии: PM-<цифры>.
var batchCodePattern = regexp.MustCompile(`^PM-\d+$`)

// ValidBatchCode сообщает, соответствует ли код партии формату PM-<цифры>.
func ValidBatchCode(code string) bool {
	return batchCodePattern.MatchString(code)
}

// CanonicalExpiry возвращает каноническую строку даты истечения срока годности.
func CanonicalExpiry(expiry time.Time) string {
	return expiry.UTC().Format(canonicalExpiryLayout)
}

// ParseExpiry разбирает дату истечения срока годности из текстовой формы.
// Допустимые формы: RFC 3339 (с дробными секундами и без), YYYY-MM-DD
// (интерпретируется как полночь UTC). Эквивалентные даты в разных формах
// дают одинаковую каноническую строку и, следовательно, одинаковый отпечаток.
func ParseExpiry(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: дата истечения срока не задана", ErrInvalidInput)
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: нераспознаваемая дата %q", ErrInvalidInput, value)
}

// Derive вычисляет отпечаток партии: SHA-256 от канонической конкатенации
// полей, в нижнем регистре hex (64 символа). Чистая функция без побочных
// эффектов: одинаковые входы всегда дают одинаковый отпечаток.
func Derive(batchCode, manufacturer string, expiry time.Time, productName string) (string, error) {
	if batchCode == "" || manufacturer == "" || productName == "" {
		return "", fmt.Errorf("%w: все поля идентичности партии обязательны", ErrInvalidInput)
	}
	if expiry.IsZero() {
		return "", fmt.Errorf("%w: дата истечения срока не задана", ErrInvalidInput)
	}

	input := batchCode + delimiter + manufacturer + delimiter +
		CanonicalExpiry(expiry) + delimiter + productName

	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:]), nil
}

// DeriveFromString — как Derive, но принимает дату в текстовой форме.
func DeriveFromString(batchCode, manufacturer, expiry, productName string) (string, error) {
	t, err := ParseExpiry(expiry)
	if err != nil {
		return "", err
	}
	return Derive(batchCode, manufacturer, t, productName)
}

// ToBytes32 валидирует hex-дайджест и приводит его к фиксированной
// 32-байтовой форме для передачи в реестр. Принимает дайджест с префиксом
// "0x" и без него.
func ToBytes32(hexHash string) ([32]byte, error) {
	var out [32]byte

	clean := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(hexHash)), "0x")
	if len(clean) != 64 {
		return out, fmt.Errorf("%w: ожидается 64 hex-символа, получено %d", ErrMalformedHash, len(clean))
	}

	raw, err := hex.DecodeString(clean)
	if err != nil {
		return out, fmt.Errorf("%w: недопустимые символы в дайджесте", ErrMalformedHash)
	}

	copy(out[:], raw)
	return out, nil
}
