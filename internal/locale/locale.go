// Package locale форматирует суммы и даты для корейской витрины.
package locale

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.Korean)

var weekdays = [...]string{"일요일", "월요일", "화요일", "수요일", "목요일", "금요일", "토요일"}

// FormatKRW форматирует сумму в вонах без дробной части: ₩28,000.
func FormatKRW(amount int64) string {
	if amount < 0 {
		return "-₩" + printer.Sprintf("%d", -amount)
	}
	return "₩" + printer.Sprintf("%d", amount)
}

// WeekdayName возвращает название дня недели по-корейски.
func WeekdayName(d time.Weekday) string {
	return weekdays[d]
}

// StatusLabel возвращает подпись статуса заказа.
func StatusLabel(status string) string {
	if l, ok := statusLabels[status]; ok {
		return l
	}
	return status
}

var statusLabels = map[string]string{
	"pending":    "주문 접수",
	"preparing":  "조리 중",
	"delivering": "배송 중",
	"completed":  "배송 완료",
	"cancelled":  "주문 취소",
}

// CategoryLabel возвращает подпись категории меню.
func CategoryLabel(category string) string {
	if l, ok := categoryLabels[category]; ok {
		return l
	}
	return category
}

var categoryLabels = map[string]string{
	"premium": "프리미엄",
	"regular": "일반",
	"diet":    "다이어트",
}

// SlotLabel возвращает подпись окна доставки.
func SlotLabel(slot string) string {
	switch slot {
	case "lunch":
		return "점심 (11:00-13:00)"
	case "dinner":
		return "저녁 (17:00-19:00)"
	}
	return slot
}
