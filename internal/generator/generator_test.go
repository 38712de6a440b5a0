package generator

import (
	"context"
	"testing"
	"time"

	"github.com/Lumos-Labs-HQ/flowpulse/internal/config"
	"github.com/Lumos-Labs-HQ/flowpulse/internal/dataset"
	"github.com/Lumos-Labs-HQ/flowpulse/internal/integrity"
	"github.com/Lumos-Labs-HQ/flowpulse/internal/sampler"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse(config.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func smallConfig(customers int) *config.Config {
	cfg := config.Default()
	cfg.Customers.Count = customers
	cfg.Horizon = config.Horizon{Start: "2023-01-01", End: "2023-12-31"}
	return cfg
}

func mustSettings(t *testing.T, cfg *config.Config) *Settings {
	t.Helper()
	s, err := NewSettings(cfg)
	require.NoError(t, err)
	return s
}

func generate(t *testing.T, cfg *config.Config) *dataset.Dataset {
	t.Helper()
	ds, err := NewPipeline(mustSettings(t, cfg), cfg.Seed, nil).Run(context.Background())
	require.NoError(t, err)
	return ds
}

func TestNewSettingsRejectsInvalidConfig(t *testing.T) {
	cfg := smallConfig(10)
	cfg.Horizon.End = cfg.Horizon.Start
	_, err := NewSettings(cfg)
	require.Error(t, err)
}

func TestStageGraphOrder(t *testing.T) {
	p := NewPipeline(mustSettings(t, smallConfig(1)), 42, nil)
	order, err := p.Order()
	require.NoError(t, err)
	assert.Equal(t, []string{
		dataset.TableChannels,
		dataset.TableCustomers,
		dataset.TableSubscriptions,
		dataset.TablePayments,
		dataset.TableEvents,
	}, order)
}

func TestStageGraphErrors(t *testing.T) {
	g := NewStageGraph()
	g.AddStage("a", "b")
	g.AddStage("b", "a")
	_, err := g.BuildOrder()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular dependency")

	g = NewStageGraph()
	g.AddStage("a", "missing")
	_, err = g.BuildOrder()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown stage")
}

func TestGenerateChannels(t *testing.T) {
	s := mustSettings(t, smallConfig(1))
	channels := GenerateChannels(s, sampler.NewStreams(42))

	require.Equal(t, 12, channels.Len())
	for i, c := range channels.All() {
		assert.Equal(t, int64(i+1), c.ID)
	}

	first := channels.Row(0)
	assert.Equal(t, "facebook_ads", first.Name)
	assert.Equal(t, "facebook_ads_campaign_1", first.Campaign)
	assert.Equal(t, "cpc", first.UTMMedium)
	assert.Equal(t, "facebook", first.UTMSource)

	seo := channels.Row(6)
	assert.Equal(t, "seo", seo.Name)
	assert.Equal(t, "organic", seo.UTMMedium)
	assert.Equal(t, "seo", seo.UTMSource)
	assert.True(t, seo.CAC.Equal(seo.CAC.Round(2)))
}

func TestPaidSubscriptionTrial(t *testing.T) {
	cfg := smallConfig(1)
	cfg.Distributions.Plan = []config.Weighted{{Value: "free", Weight: 0}, {Value: "basic", Weight: 0}, {Value: "pro", Weight: 1}, {Value: "team", Weight: 0}}
	s := mustSettings(t, cfg)

	customer := dataset.Customer{ID: 1, SignupDate: date("2023-01-01"), AcquisitionChannelID: 1}
	sub := newSubscription(s, sampler.NewStreams(42), customer)

	assert.Equal(t, "pro", sub.Plan)
	require.NotNil(t, sub.TrialStart)
	require.NotNil(t, sub.TrialEnd)
	assert.Equal(t, date("2023-01-01"), *sub.TrialStart)
	assert.Equal(t, date("2023-01-15"), *sub.TrialEnd)
	assert.Equal(t, date("2023-01-15"), sub.StartDate)
	assert.Nil(t, sub.EndDate)
	assert.Nil(t, sub.ChurnReason)
	assert.True(t, sub.IsActive())
}

func TestFreeSubscriptionHasNoTrial(t *testing.T) {
	cfg := smallConfig(1)
	cfg.Distributions.Plan = []config.Weighted{{Value: "free", Weight: 1}, {Value: "basic", Weight: 0}, {Value: "pro", Weight: 0}, {Value: "team", Weight: 0}}
	s := mustSettings(t, cfg)

	churned := date("2023-03-01")
	customer := dataset.Customer{ID: 3, SignupDate: date("2023-01-10"), ChurnedDate: &churned}
	sub := newSubscription(s, sampler.NewStreams(42), customer)

	assert.Equal(t, "free", sub.Plan)
	assert.Nil(t, sub.TrialStart)
	assert.Nil(t, sub.TrialEnd)
	assert.Equal(t, customer.SignupDate, sub.StartDate)
	require.NotNil(t, sub.EndDate)
	assert.Equal(t, churned, *sub.EndDate)
	assert.False(t, sub.IsActive())

	// the subscription owns its end date
	*sub.EndDate = date("2023-04-01")
	assert.Equal(t, date("2023-03-01"), *customer.ChurnedDate)
}

func TestLedgerForActivePaidSubscription(t *testing.T) {
	cfg := smallConfig(1)
	cfg.Distributions.PaymentStatus = []config.Weighted{{Value: "success", Weight: 1}, {Value: "failed", Weight: 0}, {Value: "refunded", Weight: 0}}
	s := mustSettings(t, cfg)

	sub := dataset.Subscription{ID: 1, CustomerID: 1, Plan: "pro", StartDate: date("2023-01-15")}
	ledger := newLedger(s, sampler.NewStreams(42), sub)

	// 2023-01-15 + k*30 days for k = 0..11 stays within 2023-12-31
	require.Len(t, ledger, 12)
	assert.Equal(t, date("2023-01-15"), ledger[0].Date)
	assert.Equal(t, date("2023-02-14"), ledger[1].Date)
	assert.Equal(t, date("2023-12-11"), ledger[11].Date)
	assert.Equal(t, "INV-1-202301", ledger[0].InvoiceID)
	assert.Equal(t, "INV-1-202302", ledger[1].InvoiceID)

	for _, p := range ledger {
		assert.Equal(t, "19.00", p.Amount.StringFixed(2))
		assert.True(t, p.IsRenewal)
		assert.Equal(t, int64(1), p.SubscriptionID)
	}
}

func TestLedgerAmountsFollowStatus(t *testing.T) {
	cfg := smallConfig(1)
	cfg.Distributions.PaymentStatus = []config.Weighted{{Value: "success", Weight: 0}, {Value: "failed", Weight: 0.5}, {Value: "refunded", Weight: 0.5}}
	s := mustSettings(t, cfg)

	sub := dataset.Subscription{ID: 9, CustomerID: 9, Plan: "team", StartDate: date("2023-01-01")}
	for _, p := range newLedger(s, sampler.NewStreams(42), sub) {
		assert.NotEqual(t, dataset.PaymentSuccess, p.Status)
		assert.True(t, p.Amount.Equal(decimal.Zero))
	}
}

func TestLedgerStopsAtChurn(t *testing.T) {
	s := mustSettings(t, smallConfig(1))

	end := date("2023-03-01")
	sub := dataset.Subscription{ID: 2, CustomerID: 2, Plan: "basic", StartDate: date("2023-01-01"), EndDate: &end}
	ledger := newLedger(s, sampler.NewStreams(42), sub)

	require.Len(t, ledger, 2)
	for _, p := range ledger {
		assert.False(t, p.Date.After(end))
	}
}

func TestLedgerEmptyWhenChurnedDuringTrial(t *testing.T) {
	s := mustSettings(t, smallConfig(1))

	end := date("2023-01-05")
	sub := dataset.Subscription{ID: 4, CustomerID: 4, Plan: "pro", StartDate: date("2023-01-15"), EndDate: &end}
	assert.Empty(t, newLedger(s, sampler.NewStreams(42), sub))
}

func TestEventCount(t *testing.T) {
	cfg := smallConfig(1)
	cfg.Events.Average = 0
	s := mustSettings(t, cfg)

	r := sampler.NewStreams(1).Stream("test", 0)
	for range 200 {
		n := eventCount(s, r, false)
		require.Equal(t, s.EventMinimum, n)

		n = eventCount(s, r, true)
		require.GreaterOrEqual(t, n, s.EventMinimum+s.ActiveBonus.Min)
		require.Less(t, n, s.EventMinimum+s.ActiveBonus.Max)
	}
}

func TestEventsStayInCustomerWindow(t *testing.T) {
	s := mustSettings(t, smallConfig(1))

	churned := date("2023-02-01")
	c := dataset.Customer{ID: 5, SignupDate: date("2023-01-20"), DeviceType: "ios", ChurnedDate: &churned}
	events := newEventStream(s, sampler.NewStreams(42), c)

	require.GreaterOrEqual(t, len(events), s.EventMinimum)
	sessions := map[string]bool{}
	for _, e := range events {
		assert.False(t, e.Timestamp.Before(c.SignupDate))
		assert.True(t, e.Timestamp.Before(churned.AddDate(0, 0, 1)))
		assert.Equal(t, "ios", e.DeviceType)
		assert.Len(t, e.SessionID, 36)
		sessions[e.SessionID] = true
	}
	assert.Len(t, sessions, len(events))
}

func TestPipelineSmallRun(t *testing.T) {
	ds := generate(t, smallConfig(100))

	assert.Equal(t, 12, ds.Channels.Len())
	assert.Equal(t, 100, ds.Customers.Len())
	assert.Equal(t, 100, ds.Subscriptions.Len())
	assert.GreaterOrEqual(t, ds.Events.Len(), 100*5)

	start, end := date("2023-01-01"), date("2023-12-31")
	for _, c := range ds.Customers.All() {
		assert.False(t, c.SignupDate.Before(start))
		assert.False(t, c.SignupDate.After(end))
		assert.GreaterOrEqual(t, c.AcquisitionChannelID, int64(1))
		assert.LessOrEqual(t, c.AcquisitionChannelID, int64(12))
		if c.ChurnedDate != nil {
			assert.False(t, c.ChurnedDate.Before(c.SignupDate))
			assert.False(t, c.ChurnedDate.After(end))
		}
	}

	for i, sub := range ds.Subscriptions.All() {
		assert.Equal(t, int64(i+1), sub.ID)
		assert.Equal(t, ds.Customers.Row(i).ID, sub.CustomerID)
	}

	for i, p := range ds.Payments.All() {
		assert.Equal(t, int64(i+1), p.ID)
	}

	violations := integrity.NewChecker(end, "free").Check(ds)
	assert.Empty(t, violations)
}

func TestFreeCustomersHaveNoPayments(t *testing.T) {
	ds := generate(t, smallConfig(300))

	free := map[int64]bool{}
	for _, sub := range ds.Subscriptions.All() {
		if sub.Plan == "free" {
			free[sub.ID] = true
		}
	}
	require.NotEmpty(t, free)

	for _, p := range ds.Payments.All() {
		assert.False(t, free[p.SubscriptionID], "payment %d bills a free subscription", p.ID)
	}
}

func TestPaymentCardinality(t *testing.T) {
	ds := generate(t, smallConfig(200))
	s := mustSettings(t, smallConfig(200))

	counts := map[int64]int{}
	for _, p := range ds.Payments.All() {
		counts[p.SubscriptionID]++
	}
	for _, sub := range ds.Subscriptions.All() {
		want := 0
		if sub.Plan != "free" {
			want = expectedCycles(sub.StartDate, sub.BillableUntil(s.End), s.CycleDays)
		}
		assert.Equal(t, want, counts[sub.ID], "subscription %d", sub.ID)
	}
}

func TestChurnRateMatchesConfig(t *testing.T) {
	cfg := smallConfig(2000)
	cfg.Events.Average = 0
	ds := generate(t, cfg)

	churned := 0
	for _, c := range ds.Customers.All() {
		if !c.IsActive() {
			churned++
		}
	}
	assert.InDelta(t, 0.35, float64(churned)/2000, 0.04)
}

func TestChurnExtremes(t *testing.T) {
	cfg := smallConfig(50)
	cfg.Customers.ChurnRate = 0
	for _, c := range generate(t, cfg).Customers.All() {
		assert.True(t, c.IsActive())
	}

	cfg.Customers.ChurnRate = 1
	ds := generate(t, cfg)
	for _, c := range ds.Customers.All() {
		assert.False(t, c.IsActive())
	}
	for _, sub := range ds.Subscriptions.All() {
		assert.NotNil(t, sub.EndDate)
	}
}

func TestGenerationIsDeterministic(t *testing.T) {
	cfg := smallConfig(150)
	cfg.Workers = 1
	a := generate(t, cfg)

	cfg.Workers = 8
	b := generate(t, cfg)

	for _, name := range []string{
		dataset.TableChannels, dataset.TableCustomers, dataset.TableSubscriptions,
		dataset.TablePayments, dataset.TableEvents,
	} {
		ta, tb := a.Table(name), b.Table(name)
		require.Equal(t, ta.Len(), tb.Len(), name)
		for i := 0; i < ta.Len(); i++ {
			require.Equal(t, dataset.FormatRow(ta, i, nil), dataset.FormatRow(tb, i, nil), "%s row %d", name, i)
		}
	}

	cfg.Seed = 43
	c := generate(t, cfg)
	assert.NotEqual(t,
		dataset.FormatRow(a.Customers, 0, nil),
		dataset.FormatRow(c.Customers, 0, nil))
}

func TestPipelineReportsStages(t *testing.T) {
	cfg := smallConfig(10)
	p := NewPipeline(mustSettings(t, cfg), cfg.Seed, nil)

	var seen []string
	p.OnStage = func(res StageResult) {
		seen = append(seen, res.Name)
		assert.GreaterOrEqual(t, res.Rows, 0)
	}
	_, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, seen, 5)
}

func TestPipelineHonorsCancellation(t *testing.T) {
	cfg := smallConfig(10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPipeline(mustSettings(t, cfg), cfg.Seed, nil).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSessionIDsUniqueAcrossManyCustomers(t *testing.T) {
	cfg := smallConfig(20000)
	cfg.Events.Average = 0
	cfg.Events.ActiveBonus = config.IntRange{Min: 0, Max: 0}
	ds := generate(t, cfg)
	require.Equal(t, 20000*cfg.Events.Minimum, ds.Events.Len())

	seen := make(map[string]int64, ds.Events.Len())
	for _, e := range ds.Events.All() {
		prev, dup := seen[e.SessionID]
		require.False(t, dup, "events %d and %d share session %s", prev, e.ID, e.SessionID)
		seen[e.SessionID] = e.ID
	}

	// the streams behind the rows are distinct too, so no two customers are clones
	profiles := make(map[string]int64, ds.Customers.Len())
	for _, c := range ds.Customers.All() {
		first := ds.Events.Row(int(c.ID-1) * cfg.Events.Minimum)
		require.Equal(t, c.ID, first.CustomerID)
		profiles[first.SessionID] = c.ID
	}
	assert.Len(t, profiles, ds.Customers.Len())
}

func TestEventsReachLastActiveDay(t *testing.T) {
	s := mustSettings(t, smallConfig(1))
	streams := sampler.NewStreams(42)

	last := date("2023-12-31")
	c := dataset.Customer{ID: 7, SignupDate: date("2023-12-30"), DeviceType: "web"}

	hits := 0
	total := 0
	for id := int64(1); id <= 200; id++ {
		c.ID = id
		for _, e := range newEventStream(s, streams, c) {
			total++
			require.True(t, e.Timestamp.Before(last.AddDate(0, 0, 1)))
			if e.Timestamp.Truncate(24*time.Hour).Equal(last) {
				hits++
			}
		}
	}
	// two equally weighted days
	assert.InDelta(t, 0.5, float64(hits)/float64(total), 0.05)
}

func TestMixedCasePlanNamesArePriced(t *testing.T) {
	cfg := smallConfig(1)
	cfg.Plans.Prices = map[string]float64{"free": 0, "pro": 19}
	cfg.Distributions.Plan = []config.Weighted{{Value: "free", Weight: 0}, {Value: "Pro", Weight: 1}}
	cfg.Distributions.PaymentStatus = []config.Weighted{{Value: "success", Weight: 1}, {Value: "failed", Weight: 0}, {Value: "refunded", Weight: 0}}
	s := mustSettings(t, cfg)

	sub := dataset.Subscription{ID: 1, CustomerID: 1, Plan: "Pro", StartDate: date("2023-11-01")}
	ledger := newLedger(s, sampler.NewStreams(42), sub)
	require.NotEmpty(t, ledger)
	assert.Equal(t, "19.00", ledger[0].Amount.StringFixed(2))
}

func TestStagesStopOnCancellation(t *testing.T) {
	cfg := smallConfig(10)
	s := mustSettings(t, cfg)
	streams := sampler.NewStreams(cfg.Seed)
	ds := generate(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s.CustomerCount = 500000
	_, err := GenerateCustomers(ctx, s, streams, ds.Channels.Len())
	require.ErrorIs(t, err, context.Canceled)

	_, err = GenerateSubscriptions(ctx, s, streams, ds.Customers)
	require.ErrorIs(t, err, context.Canceled)

	_, err = GeneratePayments(ctx, s, streams, ds.Subscriptions)
	require.ErrorIs(t, err, context.Canceled)

	_, err = GenerateEvents(ctx, s, streams, ds.Customers)
	require.ErrorIs(t, err, context.Canceled)
}
