package reporting

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/posflow/internal/domain"
)

type DayProfit struct {
	Date   string          `json:"date"`
	Profit decimal.Decimal `json:"profit"`
}

type Report struct {
	Month       string          `json:"month"`
	TotalOrders int             `json:"total_orders"`
	TotalSales  decimal.Decimal `json:"total_sales"`
	TotalProfit decimal.Decimal `json:"total_profit"`
	ProfitByDay []DayProfit     `json:"profit_by_day"`
}

// Aggregate summarizes the orders created within month in loc. Profit uses
// the current cost price of each product, so editing a cost changes the
// profit reported for past sales. Items whose product no longer exists add
// nothing to sales or profit.
func Aggregate(month Month, orders []domain.Order, products []domain.Product, loc *time.Location) Report {
	if loc == nil {
		loc = time.UTC
	}
	from, to := month.Window(loc)

	costs := make(map[string]decimal.Decimal, len(products))
	for _, p := range products {
		costs[p.ID] = p.CostPrice
	}

	report := Report{
		Month:       month.String(),
		TotalSales:  decimal.Zero,
		TotalProfit: decimal.Zero,
		ProfitByDay: []DayProfit{},
	}
	byDay := make(map[string]decimal.Decimal)

	for _, order := range orders {
		if order.CreatedAt.Before(from) || !order.CreatedAt.Before(to) {
			continue
		}
		report.TotalOrders++

		orderProfit := decimal.Zero
		for _, item := range order.Items {
			cost, ok := costs[item.ProductID]
			if !ok {
				continue
			}
			qty := decimal.NewFromInt(int64(item.Quantity))
			report.TotalSales = report.TotalSales.Add(item.LineTotal())
			orderProfit = orderProfit.Add(item.Price.Sub(cost).Mul(qty))
		}
		report.TotalProfit = report.TotalProfit.Add(orderProfit)

		day := order.CreatedAt.In(loc).Format(time.DateOnly)
		byDay[day] = byDay[day].Add(orderProfit)
	}

	for day, profit := range byDay {
		report.ProfitByDay = append(report.ProfitByDay, DayProfit{Date: day, Profit: profit})
	}
	sort.Slice(report.ProfitByDay, func(i, j int) bool {
		return report.ProfitByDay[i].Date < report.ProfitByDay[j].Date
	})

	return report
}
