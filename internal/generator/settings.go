package generator

import (
	"time"

	"github.com/Lumos-Labs-HQ/flowpulse/internal/config"
	"github.com/Lumos-Labs-HQ/flowpulse/internal/sampler"
	"github.com/shopspring/decimal"
)

// Settings is the resolved, validated form of config.Config the stages
// read from. It is never mutated once built.
type Settings struct {
	Start, End time.Time
	Workers    int

	Catalog             []config.ChannelSpec
	CampaignsPerChannel int
	CACStdDev           float64

	CustomerCount int
	ChurnRate     float64
	Retention     config.IntRange

	TrialDays     int
	BillingPeriod string
	FreePlan      string
	Prices        map[string]decimal.Decimal
	CycleDays     int

	EventAverage float64
	EventMinimum int
	ActiveBonus  config.IntRange
	ChurnPenalty config.IntRange

	Country         *sampler.Categorical[string]
	DeviceType      *sampler.Categorical[string]
	Segment         *sampler.Categorical[string]
	Plan            *sampler.Categorical[string]
	FreeChurnReason *sampler.Categorical[string]
	PaidChurnReason *sampler.Categorical[string]
	PaymentStatus   *sampler.Categorical[string]
	PaymentMethod   *sampler.Categorical[string]
	EventType       *sampler.Categorical[string]
	EventPlan       *sampler.Categorical[string]
}

// NewSettings validates cfg and resolves it.
func NewSettings(cfg *config.Config) (*Settings, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	start, end, err := cfg.Horizon.Bounds()
	if err != nil {
		return nil, err
	}

	s := &Settings{
		Start:               start,
		End:                 end,
		Workers:             cfg.Workers,
		Catalog:             cfg.Channels.Catalog,
		CampaignsPerChannel: cfg.Channels.CampaignsPerChannel,
		CACStdDev:           cfg.Channels.CACStdDev,
		CustomerCount:       cfg.Customers.Count,
		ChurnRate:           cfg.Customers.ChurnRate,
		Retention:           cfg.Customers.RetentionDays,
		TrialDays:           cfg.Subscriptions.TrialDays,
		BillingPeriod:       cfg.Subscriptions.BillingPeriod,
		FreePlan:            cfg.Plans.Free,
		Prices:              make(map[string]decimal.Decimal, len(cfg.Plans.Prices)),
		CycleDays:           cfg.Payments.CycleDays,
		EventAverage:        cfg.Events.Average,
		EventMinimum:        cfg.Events.Minimum,
		ActiveBonus:         cfg.Events.ActiveBonus,
		ChurnPenalty:        cfg.Events.ChurnPenalty,
	}
	for plan, price := range cfg.Plans.Prices {
		s.Prices[plan] = decimal.NewFromFloat(price).Round(2)
	}
	// key every drawable plan by its exact name
	for _, w := range cfg.Distributions.Plan {
		price, _ := cfg.Plans.Price(w.Value)
		s.Prices[w.Value] = decimal.NewFromFloat(price).Round(2)
	}

	dists := []struct {
		dst     **sampler.Categorical[string]
		name    string
		weights []config.Weighted
	}{
		{&s.Country, "country", cfg.Distributions.Country},
		{&s.DeviceType, "device_type", cfg.Distributions.DeviceType},
		{&s.Segment, "segment", cfg.Distributions.Segment},
		{&s.Plan, "plan", cfg.Distributions.Plan},
		{&s.FreeChurnReason, "free_churn_reason", cfg.Distributions.FreeChurnReason},
		{&s.PaidChurnReason, "paid_churn_reason", cfg.Distributions.PaidChurnReason},
		{&s.PaymentStatus, "payment_status", cfg.Distributions.PaymentStatus},
		{&s.PaymentMethod, "payment_method", cfg.Distributions.PaymentMethod},
		{&s.EventType, "event_type", cfg.Distributions.EventType},
		{&s.EventPlan, "event_plan", cfg.Distributions.EventPlan},
	}
	for _, d := range dists {
		c, err := sampler.FromConfig(d.name, d.weights)
		if err != nil {
			return nil, err
		}
		*d.dst = c
	}

	return s, nil
}

// ChannelCount is the size of the channel catalog's dense ID range.
func (s *Settings) ChannelCount() int {
	return len(s.Catalog) * s.CampaignsPerChannel
}
