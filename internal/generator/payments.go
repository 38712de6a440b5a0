package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/Lumos-Labs-HQ/flowpulse/internal/dataset"
	"github.com/Lumos-Labs-HQ/flowpulse/internal/sampler"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/iter"
)

// GeneratePayments emits the billing ledger of every paid subscription:
// one attempt per CycleDays stride from the subscription start until the
// cursor passes its end (or the horizon end while still active). The
// stride is fixed, not calendar-month aware.
func GeneratePayments(ctx context.Context, s *Settings, streams sampler.Streams, subs *dataset.Table[dataset.Subscription]) (*dataset.Table[dataset.Payment], error) {
	input := make([]dataset.Subscription, 0, subs.Len())
	for _, sub := range subs.All() {
		if sub.Plan != s.FreePlan {
			input = append(input, sub)
		}
	}

	mapper := iter.Mapper[dataset.Subscription, []dataset.Payment]{MaxGoroutines: s.Workers}
	ledgers := mapper.Map(input, func(sub *dataset.Subscription) []dataset.Payment {
		if ctx.Err() != nil {
			return nil
		}
		return newLedger(s, streams, *sub)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows := lo.Flatten(ledgers)
	for i := range rows {
		rows[i].ID = int64(i + 1)
	}
	b := dataset.NewBuilder[dataset.Payment](dataset.PaymentSchema, len(rows))
	b.Append(rows...)
	return b.Build(), nil
}

func newLedger(s *Settings, streams sampler.Streams, sub dataset.Subscription) []dataset.Payment {
	r := streams.Stream(dataset.TablePayments, sub.ID)
	price := s.Prices[sub.Plan]
	until := sub.BillableUntil(s.End)

	ledger := make([]dataset.Payment, 0, expectedCycles(sub.StartDate, until, s.CycleDays))
	for cursor := sub.StartDate; !cursor.After(until); cursor = cursor.AddDate(0, 0, s.CycleDays) {
		status := s.PaymentStatus.Draw(r)
		amount := decimal.Zero
		if status == dataset.PaymentSuccess {
			amount = price
		}
		ledger = append(ledger, dataset.Payment{
			SubscriptionID: sub.ID,
			Date:           cursor,
			Amount:         amount,
			Status:         status,
			Method:         s.PaymentMethod.Draw(r),
			InvoiceID:      InvoiceID(sub.ID, cursor),
			IsRenewal:      true,
		})
	}
	return ledger
}

// InvoiceID is derived from the subscription and the billing month only,
// so it is reproducible without any random state.
func InvoiceID(subscriptionID int64, billedOn time.Time) string {
	return fmt.Sprintf("INV-%d-%s", subscriptionID, billedOn.Format("200601"))
}

func expectedCycles(from, until time.Time, cycleDays int) int {
	days := sampler.DaysBetween(from, until)
	if days < 0 {
		return 0
	}
	return days/cycleDays + 1
}
