package generator

import (
	"context"

	"github.com/Lumos-Labs-HQ/flowpulse/internal/dataset"
	"github.com/Lumos-Labs-HQ/flowpulse/internal/sampler"
	"github.com/sourcegraph/conc/iter"
)

// GenerateCustomers draws CustomerCount customers. channelCount sizes the
// acquisition channel ID range 1..channelCount.
func GenerateCustomers(ctx context.Context, s *Settings, streams sampler.Streams, channelCount int) (*dataset.Table[dataset.Customer], error) {
	ids := make([]int64, s.CustomerCount)
	for i := range ids {
		ids[i] = int64(i + 1)
	}

	mapper := iter.Mapper[int64, dataset.Customer]{MaxGoroutines: s.Workers}
	rows := mapper.Map(ids, func(id *int64) dataset.Customer {
		if ctx.Err() != nil {
			return dataset.Customer{}
		}
		return newCustomer(s, streams, *id, channelCount)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := dataset.NewBuilder[dataset.Customer](dataset.CustomerSchema, len(rows))
	b.Append(rows...)
	return b.Build(), nil
}

func newCustomer(s *Settings, streams sampler.Streams, id int64, channelCount int) dataset.Customer {
	r := streams.Stream(dataset.TableCustomers, id)

	c := dataset.Customer{
		ID:                   id,
		SignupDate:           sampler.DateBetween(r, s.Start, s.End),
		Country:              s.Country.Draw(r),
		DeviceType:           s.DeviceType.Draw(r),
		Segment:              s.Segment.Draw(r),
		AcquisitionChannelID: int64(sampler.IntRange(r, 1, channelCount+1)),
	}

	if sampler.Bernoulli(r, s.ChurnRate) {
		retention := sampler.IntRange(r, s.Retention.Min, s.Retention.Max)
		churned := c.SignupDate.AddDate(0, 0, retention)
		// clamp, never drop: a late churn stays a churn at the horizon edge
		if churned.After(s.End) {
			churned = s.End
		}
		c.ChurnedDate = &churned
	}
	return c
}
