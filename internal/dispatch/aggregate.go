package dispatch

import "github.com/shopspring/decimal"

// Aggregations summarises a filtered row set per lifecycle status. Every
// status is always present.
type Aggregations struct {
	Counts      map[Status]int     `json:"counts"`
	Amounts     map[Status]float64 `json:"amounts"`
	TotalCount  int                `json:"totalCount"`
	TotalAmount float64            `json:"totalAmount"`
}

// Aggregate walks rows once.
func Aggregate(rows []Row) Aggregations {
	statuses := AllStatuses()
	counts := make(map[Status]int, len(statuses))
	sums := make(map[Status]decimal.Decimal, len(statuses))
	for _, s := range statuses {
		counts[s] = 0
		sums[s] = decimal.Zero
	}

	total := decimal.Zero
	for _, row := range rows {
		amount := decimal.NewFromFloat(finite(row.NetAmount))
		status := row.Status
		if !status.IsValid() {
			status = StatusForDispatch
		}
		counts[status]++
		sums[status] = sums[status].Add(amount)
		total = total.Add(amount)
	}

	amounts := make(map[Status]float64, len(statuses))
	for _, s := range statuses {
		amounts[s] = money(sums[s])
	}
	return Aggregations{
		Counts:      counts,
		Amounts:     amounts,
		TotalCount:  len(rows),
		TotalAmount: money(total),
	}
}
