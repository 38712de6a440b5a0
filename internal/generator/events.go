package generator

import (
	"context"
	"math/rand/v2"

	"github.com/Lumos-Labs-HQ/flowpulse/internal/dataset"
	"github.com/Lumos-Labs-HQ/flowpulse/internal/sampler"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/iter"
)

// GenerateEvents derives each customer's usage stream. Volume is a floored
// Poisson count, nudged up for active customers and down for churned ones.
func GenerateEvents(ctx context.Context, s *Settings, streams sampler.Streams, customers *dataset.Table[dataset.Customer]) (*dataset.Table[dataset.UserEvent], error) {
	input := make([]dataset.Customer, 0, customers.Len())
	for _, c := range customers.All() {
		input = append(input, c)
	}

	mapper := iter.Mapper[dataset.Customer, []dataset.UserEvent]{MaxGoroutines: s.Workers}
	streamsByCustomer := mapper.Map(input, func(c *dataset.Customer) []dataset.UserEvent {
		if ctx.Err() != nil {
			return nil
		}
		return newEventStream(s, streams, *c)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows := lo.Flatten(streamsByCustomer)
	for i := range rows {
		rows[i].ID = int64(i + 1)
	}
	b := dataset.NewBuilder[dataset.UserEvent](dataset.EventSchema, len(rows))
	b.Append(rows...)
	return b.Build(), nil
}

func newEventStream(s *Settings, streams sampler.Streams, c dataset.Customer) []dataset.UserEvent {
	r := streams.Stream(dataset.TableEvents, c.ID)

	n := eventCount(s, r, c.IsActive())
	until := c.ActiveUntil(s.End)
	events := make([]dataset.UserEvent, n)
	for i := range events {
		events[i] = dataset.UserEvent{
			CustomerID: c.ID,
			Timestamp:  sampler.TimestampInDays(r, c.SignupDate, until),
			Type:       s.EventType.Draw(r),
			DeviceType: c.DeviceType,
			// drawn independently of the customer's subscription
			Plan:      s.EventPlan.Draw(r),
			SessionID: uuid.Must(uuid.NewRandomFromReader(sampler.Reader(r))).String(),
		}
	}
	return events
}

// eventCount floors the Poisson draw, applies the activity adjustment and
// floors again.
func eventCount(s *Settings, r *rand.Rand, active bool) int {
	n := max(s.EventMinimum, sampler.Poisson(r, s.EventAverage))
	if active {
		n += sampler.IntRange(r, s.ActiveBonus.Min, s.ActiveBonus.Max)
	} else {
		n -= sampler.IntRange(r, s.ChurnPenalty.Min, s.ChurnPenalty.Max)
	}
	return max(s.EventMinimum, n)
}
