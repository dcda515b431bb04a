package client

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// Demo data is only served by Resolve when the client runs in demo mode and no endpoint exists.
// Values are derived from the calendar day so that repeated calls on the same day agree.

func demoRand(now time.Time, stream uint64) *rand.Rand {
	day := uint64(now.UTC().Truncate(24 * time.Hour).Unix())
	return rand.New(rand.NewPCG(day, stream))
}

func roundCents(v float64) Amount {
	return Amount(math.Round(v*100) / 100)
}

// DemoFinanceOverview returns plausible totals for the month containing now
func DemoFinanceOverview(now time.Time) FinanceOverview {
	r := demoRand(now, 1)

	gross := 80000 + r.Float64()*40000
	fees := gross * 0.12
	restaurants := gross * 0.72
	couriers := gross * 0.11
	refunds := gross * (0.005 + r.Float64()*0.01)
	paid := (restaurants + couriers) * (0.6 + r.Float64()*0.3)

	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return FinanceOverview{
		GrossRevenue:       roundCents(gross),
		PlatformFees:       roundCents(fees),
		RestaurantPayables: roundCents(restaurants),
		CourierPayables:    roundCents(couriers),
		PendingPayouts:     roundCents(restaurants + couriers - paid),
		PaidPayouts:        roundCents(paid),
		Refunds:            roundCents(refunds),
		NetRevenue:         roundCents(fees - refunds),
		PeriodStart:        start.Format(time.DateOnly),
		PeriodEnd:          now.UTC().Format(time.DateOnly),
	}
}

var demoTransactionTypes = []string{"order", "payout", "refund", "fee"}

// DemoTransactions returns n transactions, newest first, spread over the hours before now
func DemoTransactions(now time.Time, n int) []Transaction {
	r := demoRand(now, 2)

	txs := make([]Transaction, 0, n)
	for i := range n {
		kind := demoTransactionTypes[r.IntN(len(demoTransactionTypes))]
		amount := 15 + r.Float64()*250
		status := "completed"
		switch kind {
		case "refund":
			amount = -amount / 4
		case "payout":
			amount *= 10
			if r.IntN(3) == 0 {
				status = "pending"
			}
		case "fee":
			amount *= 0.12
		}

		txs = append(txs, Transaction{
			ID:          ID(fmt.Sprintf("demo-%d", i+1)),
			Type:        kind,
			Description: fmt.Sprintf("%s #%04d", kind, 1000+r.IntN(9000)),
			Amount:      roundCents(amount),
			Status:      status,
			CreatedAt:   now.UTC().Add(-time.Duration(i*3) * time.Hour).Format(time.RFC3339),
		})
	}
	return txs
}
