package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/Lumos-Labs-HQ/flowpulse/internal/dataset"
	"github.com/Lumos-Labs-HQ/flowpulse/internal/sampler"
	"go.uber.org/zap"
)

// StageResult describes one finished stage.
type StageResult struct {
	Name     string
	Rows     int
	Duration time.Duration
}

type stage struct {
	name string
	deps []string
	run  func(ctx context.Context, ds *dataset.Dataset) (int, error)
}

// Pipeline runs the stages in dependency order. Each stage reads only the
// upstream tables already stored on the dataset and stores its own.
type Pipeline struct {
	settings *Settings
	streams  sampler.Streams
	logger   *zap.Logger
	stages   map[string]stage
	graph    *StageGraph

	// OnStage, when set, is called after each stage completes.
	OnStage func(StageResult)
}

func NewPipeline(settings *Settings, seed int64, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		settings: settings,
		streams:  sampler.NewStreams(seed),
		logger:   logger,
		stages:   make(map[string]stage),
		graph:    NewStageGraph(),
	}
	p.register()
	return p
}

func (p *Pipeline) register() {
	s, streams := p.settings, p.streams

	p.add(dataset.ChannelSchema, func(ctx context.Context, ds *dataset.Dataset) (int, error) {
		ds.Channels = GenerateChannels(s, streams)
		return ds.Channels.Len(), nil
	})
	p.add(dataset.CustomerSchema, func(ctx context.Context, ds *dataset.Dataset) (int, error) {
		t, err := GenerateCustomers(ctx, s, streams, ds.Channels.Len())
		if err != nil {
			return 0, err
		}
		ds.Customers = t
		return t.Len(), nil
	})
	p.add(dataset.SubscriptionSchema, func(ctx context.Context, ds *dataset.Dataset) (int, error) {
		t, err := GenerateSubscriptions(ctx, s, streams, ds.Customers)
		if err != nil {
			return 0, err
		}
		ds.Subscriptions = t
		return t.Len(), nil
	})
	p.add(dataset.PaymentSchema, func(ctx context.Context, ds *dataset.Dataset) (int, error) {
		t, err := GeneratePayments(ctx, s, streams, ds.Subscriptions)
		if err != nil {
			return 0, err
		}
		ds.Payments = t
		return t.Len(), nil
	})
	p.add(dataset.EventSchema, func(ctx context.Context, ds *dataset.Dataset) (int, error) {
		t, err := GenerateEvents(ctx, s, streams, ds.Customers)
		if err != nil {
			return 0, err
		}
		ds.Events = t
		return t.Len(), nil
	})
}

// add registers a stage under its table name; the table's foreign keys
// become the stage's dependencies.
func (p *Pipeline) add(schema dataset.Schema, run func(context.Context, *dataset.Dataset) (int, error)) {
	deps := schema.Dependencies()
	p.stages[schema.Name] = stage{name: schema.Name, deps: deps, run: run}
	p.graph.AddStage(schema.Name, deps...)
}

// Order returns the stage order, which is also the order tables must be
// written in.
func (p *Pipeline) Order() ([]string, error) {
	if order := p.graph.GetOrder(); order != nil {
		return order, nil
	}
	return p.graph.BuildOrder()
}

// Run generates every table. Nothing is written; see sink.WriteAll.
func (p *Pipeline) Run(ctx context.Context) (*dataset.Dataset, error) {
	order, err := p.Order()
	if err != nil {
		return nil, fmt.Errorf("failed to build stage order: %w", err)
	}

	p.logger.Info("starting generation",
		zap.Int64("seed", p.streams.Seed()),
		zap.Int("customers", p.settings.CustomerCount),
		zap.Time("horizon_start", p.settings.Start),
		zap.Time("horizon_end", p.settings.End),
		zap.Strings("order", order),
	)

	ds := &dataset.Dataset{}
	for _, name := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		st := p.stages[name]

		started := time.Now()
		rows, err := st.run(ctx, ds)
		if err != nil {
			return nil, fmt.Errorf("stage %s failed: %w", name, err)
		}
		res := StageResult{Name: name, Rows: rows, Duration: time.Since(started)}

		p.logger.Info("stage complete",
			zap.String("stage", res.Name),
			zap.Int("rows", res.Rows),
			zap.Duration("took", res.Duration),
		)
		if p.OnStage != nil {
			p.OnStage(res)
		}
	}
	return ds, nil
}
