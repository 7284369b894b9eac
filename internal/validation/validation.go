// Package validation содержит правила проверки пользовательских форм.
package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrRequired возвращается, если обязательное поле формы пустое.
	ErrRequired = errors.New("required field is empty")
	// ErrInvalidGuests возвращается для некорректного количества гостей.
	ErrInvalidGuests = errors.New("number of guests must be a positive integer")
)

// Field описывает поле формы.
type Field struct {
	Name  string
	Value string
}

// Required проверяет, что все поля заполнены. Пробелы не считаются значением.
func Required(fields ...Field) error {
	for _, f := range fields {
		if strings.TrimSpace(f.Value) == "" {
			return fmt.Errorf("%w: %s", ErrRequired, f.Name)
		}
	}
	return nil
}

// ParseGuests разбирает количество гостей. Допускаются только целые числа больше нуля.
func ParseGuests(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidGuests, s)
	}
	return n, nil
}
