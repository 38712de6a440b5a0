package generator

import (
	"context"

	"github.com/Lumos-Labs-HQ/flowpulse/internal/config"
	"github.com/Lumos-Labs-HQ/flowpulse/internal/dataset"
	"github.com/Lumos-Labs-HQ/flowpulse/internal/sampler"
	"github.com/sourcegraph/conc/iter"
)

// GenerateSubscriptions derives exactly one subscription per customer.
// subscription_id follows customer order.
func GenerateSubscriptions(ctx context.Context, s *Settings, streams sampler.Streams, customers *dataset.Table[dataset.Customer]) (*dataset.Table[dataset.Subscription], error) {
	input := make([]dataset.Customer, 0, customers.Len())
	for _, c := range customers.All() {
		input = append(input, c)
	}

	mapper := iter.Mapper[dataset.Customer, dataset.Subscription]{MaxGoroutines: s.Workers}
	rows := mapper.Map(input, func(c *dataset.Customer) dataset.Subscription {
		if ctx.Err() != nil {
			return dataset.Subscription{}
		}
		return newSubscription(s, streams, *c)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := dataset.NewBuilder[dataset.Subscription](dataset.SubscriptionSchema, len(rows))
	for i := range rows {
		rows[i].ID = int64(i + 1)
	}
	b.Append(rows...)
	return b.Build(), nil
}

func newSubscription(s *Settings, streams sampler.Streams, c dataset.Customer) dataset.Subscription {
	r := streams.Stream(dataset.TableSubscriptions, c.ID)
	plan := s.Plan.Draw(r)

	sub := dataset.Subscription{
		CustomerID:    c.ID,
		Plan:          plan,
		StartDate:     c.SignupDate,
		BillingPeriod: s.BillingPeriod,
	}

	if c.ChurnedDate != nil {
		end := *c.ChurnedDate
		sub.EndDate = &end
	}

	reasons := s.FreeChurnReason
	if plan != s.FreePlan {
		trialStart := c.SignupDate
		trialEnd := trialStart.AddDate(0, 0, s.TrialDays)
		sub.TrialStart = &trialStart
		sub.TrialEnd = &trialEnd
		sub.StartDate = trialEnd
		reasons = s.PaidChurnReason
	}

	if c.ChurnedDate != nil {
		if reason := reasons.Draw(r); reason != config.NoReason {
			sub.ChurnReason = &reason
		}
	}
	return sub
}
