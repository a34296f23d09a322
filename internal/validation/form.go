// Package validation содержит функции валидации входных данных форм.
package validation

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// DateLayout: формат даты доставки.
const DateLayout = "2006-01-02"

var (
	// ErrRequired возвращается, если обязательное поле пустое.
	ErrRequired = errors.New("required field is empty")
	// ErrInvalidPrice возвращается, если цену нельзя привести к числу.
	ErrInvalidPrice = errors.New("invalid price")
	// ErrInvalidDate возвращается для даты в неверном формате.
	ErrInvalidDate = errors.New("invalid date")
	// ErrDateInPast возвращается для даты доставки раньше сегодняшней.
	ErrDateInPast = errors.New("delivery date is in the past")
)

// Blank сообщает, что строка пустая или состоит из пробелов.
func Blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Required проверяет, что ни одно из именованных полей не пустое.
func Required(fields map[string]string) error {
	var missing []string
	for name, v := range fields {
		if Blank(v) {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return fmt.Errorf("%w: %s", ErrRequired, strings.Join(missing, ", "))
}

// ParsePrice приводит строку цены к целому числу вон. Допускает разделители
// разрядов и символ валюты.
func ParsePrice(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: price", ErrRequired)
	}

	cleaned := strings.NewReplacer(",", "", "₩", "", "원", "", " ", "").Replace(s)
	v, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(cleaned, 64)
		if ferr != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
		}
		v = int64(f)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	return v, nil
}

// ParseDeliveryDate разбирает дату доставки и проверяет, что она не раньше today.
func ParseDeliveryDate(s string, today time.Time) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), today.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}

	y, m, day := today.Date()
	start := time.Date(y, m, day, 0, 0, 0, 0, today.Location())
	if d.Before(start) {
		return time.Time{}, fmt.Errorf("%w: %s", ErrDateInPast, s)
	}
	return d, nil
}
