package analytics

import "github.com/trogers1052/stock-analytics-engine/internal/models"

// MaxProfitSolver finds the maximum profit from any number of non-overlapping
// single-share trades and the transactions achieving it
type MaxProfitSolver struct{}

// Solve walks the closes once. Each transaction buys at a local minimum and
// sells at the following local maximum, so flat stretches extend a span
// rather than splitting it.
func (MaxProfitSolver) Solve(bars []models.Bar) models.MaxProfitResult {
	result := models.MaxProfitResult{Transactions: []models.Transaction{}}
	n := len(bars)
	if n < 2 {
		return result
	}

	i := 0
	for i < n-1 {
		for i < n-1 && bars[i+1].Close <= bars[i].Close {
			i++
		}
		if i == n-1 {
			break
		}
		buy := i

		for i < n-1 && bars[i+1].Close >= bars[i].Close {
			i++
		}
		sell := i

		profit := bars[sell].Close - bars[buy].Close
		if profit > 0 {
			result.MaxProfit += profit
			result.Transactions = append(result.Transactions, models.Transaction{
				BuyDate:   bars[buy].Date,
				SellDate:  bars[sell].Date,
				BuyPrice:  bars[buy].Close,
				SellPrice: bars[sell].Close,
				Profit:    profit,
			})
		}
	}
	return result
}
