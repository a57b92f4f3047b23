// secret.go — обёртка над токеном авторизации, скрывающая значение
// при форматировании, логировании и JSON-сериализации.
package downstream

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
)

// redacted — представление секрета в логах и выводе.
const redacted = "Secret(***)"

// Secret — значение заголовка Authorization пользователя.
// Значение доступно только через Value().
type Secret struct {
	value string
}

// NewSecret оборачивает значение в Secret.
func NewSecret(value string) Secret {
	return Secret{value: value}
}

// Value возвращает исходное значение.
func (s Secret) Value() string {
	return s.value
}

// IsZero сообщает, пуст ли секрет.
func (s Secret) IsZero() bool {
	return s.value == ""
}

// Equal сравнивает исходные значения двух секретов.
func (s Secret) Equal(other Secret) bool {
	return subtle.ConstantTimeCompare([]byte(s.value), []byte(other.value)) == 1
}

func (s Secret) String() string {
	return redacted
}

func (s Secret) GoString() string {
	return redacted
}

// LogValue реализует slog.LogValuer.
func (s Secret) LogValue() slog.Value {
	return slog.StringValue(redacted)
}

// MarshalJSON не раскрывает значение.
func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(redacted)
}
