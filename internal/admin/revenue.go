package admin

import (
	"time"

	"github.com/mmeshcher/dosirak-shop/internal/locale"
	"github.com/mmeshcher/dosirak-shop/internal/model"
)

// DailyRevenue: выручка за день недели.
type DailyRevenue struct {
	Day     string       `json:"day"`
	Weekday time.Weekday `json:"-"`
	Total   int64        `json:"total"`
}

// Revenue группирует заказы по дню недели их создания в зоне loc и суммирует
// итоги. Дни идут с понедельника по воскресенье, дни без заказов пропускаются.
func Revenue(orders []model.Order, loc *time.Location) []DailyRevenue {
	var totals [7]int64
	var seen [7]bool
	for _, o := range orders {
		wd := o.CreatedAt.In(loc).Weekday()
		totals[wd] += o.TotalAmount
		seen[wd] = true
	}

	res := make([]DailyRevenue, 0, 7)
	for i := 1; i <= 7; i++ {
		wd := time.Weekday(i % 7)
		if !seen[wd] {
			continue
		}
		res = append(res, DailyRevenue{
			Day:     locale.WeekdayName(wd),
			Weekday: wd,
			Total:   totals[wd],
		})
	}
	return res
}
