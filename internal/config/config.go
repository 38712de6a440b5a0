package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	ierr "github.com/Lumos-Labs-HQ/flowpulse/internal/errors"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	DateLayout = "2006-01-02"

	// weightTolerance is how far a distribution's weights may drift from 1
	weightTolerance = 1e-6
)

type Config struct {
	Environment   string        `json:"environment" yaml:"environment" mapstructure:"environment"`
	Seed          int64         `json:"seed" yaml:"seed" mapstructure:"seed"`
	Workers       int           `json:"workers" yaml:"workers" mapstructure:"workers" validate:"gte=1"`
	Horizon       Horizon       `json:"horizon" yaml:"horizon" mapstructure:"horizon"`
	Channels      Channels      `json:"channels" yaml:"channels" mapstructure:"channels"`
	Customers     Customers     `json:"customers" yaml:"customers" mapstructure:"customers"`
	Subscriptions Subscriptions `json:"subscriptions" yaml:"subscriptions" mapstructure:"subscriptions"`
	Plans         Plans         `json:"plans" yaml:"plans" mapstructure:"plans"`
	Payments      Payments      `json:"payments" yaml:"payments" mapstructure:"payments"`
	Events        Events        `json:"events" yaml:"events" mapstructure:"events"`
	Distributions Distributions `json:"distributions" yaml:"distributions" mapstructure:"distributions"`
	Output        Output        `json:"output" yaml:"output" mapstructure:"output"`
	Database      Database      `json:"database" yaml:"database" mapstructure:"database"`
}

// Horizon bounds every date in the dataset, both ends inclusive.
type Horizon struct {
	Start string `json:"start" yaml:"start" mapstructure:"start" validate:"required"`
	End   string `json:"end" yaml:"end" mapstructure:"end" validate:"required"`
}

type Channels struct {
	CampaignsPerChannel int           `json:"campaigns_per_channel" yaml:"campaigns_per_channel" mapstructure:"campaigns_per_channel" validate:"gte=1"`
	CACStdDev           float64       `json:"cac_stddev" yaml:"cac_stddev" mapstructure:"cac_stddev" validate:"gte=0"`
	Catalog             []ChannelSpec `json:"catalog" yaml:"catalog" mapstructure:"catalog" validate:"min=1,dive"`
}

type ChannelSpec struct {
	Name    string  `json:"name" yaml:"name" mapstructure:"name" validate:"required"`
	BaseCAC float64 `json:"base_cac" yaml:"base_cac" mapstructure:"base_cac" validate:"gte=0"`
}

type Customers struct {
	Count         int      `json:"count" yaml:"count" mapstructure:"count" validate:"gt=0"`
	ChurnRate     float64  `json:"churn_rate" yaml:"churn_rate" mapstructure:"churn_rate" validate:"gte=0,lte=1"`
	RetentionDays IntRange `json:"retention_days" yaml:"retention_days" mapstructure:"retention_days"`
}

// IntRange is a half-open [Min, Max) integer range. Min == Max always
// yields Min.
type IntRange struct {
	Min int `json:"min" yaml:"min" mapstructure:"min" validate:"gte=0"`
	Max int `json:"max" yaml:"max" mapstructure:"max" validate:"gtefield=Min"`
}

type Subscriptions struct {
	TrialDays     int    `json:"trial_days" yaml:"trial_days" mapstructure:"trial_days" validate:"gte=0"`
	BillingPeriod string `json:"billing_period" yaml:"billing_period" mapstructure:"billing_period" validate:"required"`
}

type Plans struct {
	Free   string             `json:"free" yaml:"free" mapstructure:"free" validate:"required"`
	Prices map[string]float64 `json:"prices" yaml:"prices" mapstructure:"prices" validate:"required,dive,gte=0"`
}

// Price looks a plan up in Prices. Map keys arrive lowercased from viper,
// so a plan that has no exact entry is matched case-insensitively.
func (p Plans) Price(plan string) (float64, bool) {
	if price, ok := p.Prices[plan]; ok {
		return price, true
	}
	for name, price := range p.Prices {
		if strings.EqualFold(name, plan) {
			return price, true
		}
	}
	return 0, false
}

type Payments struct {
	CycleDays int `json:"cycle_days" yaml:"cycle_days" mapstructure:"cycle_days" validate:"gte=1"`
}

type Events struct {
	Average      float64  `json:"average" yaml:"average" mapstructure:"average" validate:"gte=0,lte=100000"`
	Minimum      int      `json:"minimum" yaml:"minimum" mapstructure:"minimum" validate:"gte=0"`
	ActiveBonus  IntRange `json:"active_bonus" yaml:"active_bonus" mapstructure:"active_bonus"`
	ChurnPenalty IntRange `json:"churn_penalty" yaml:"churn_penalty" mapstructure:"churn_penalty"`
}

// Weighted is one outcome of a categorical distribution.
type Weighted struct {
	Value  string  `json:"value" yaml:"value" mapstructure:"value" validate:"required"`
	Weight float64 `json:"weight" yaml:"weight" mapstructure:"weight" validate:"gte=0"`
}

type Distributions struct {
	Country         []Weighted `json:"country" yaml:"country" mapstructure:"country" validate:"min=1,dive"`
	DeviceType      []Weighted `json:"device_type" yaml:"device_type" mapstructure:"device_type" validate:"min=1,dive"`
	Segment         []Weighted `json:"segment" yaml:"segment" mapstructure:"segment" validate:"min=1,dive"`
	Plan            []Weighted `json:"plan" yaml:"plan" mapstructure:"plan" validate:"min=1,dive"`
	FreeChurnReason []Weighted `json:"free_churn_reason" yaml:"free_churn_reason" mapstructure:"free_churn_reason" validate:"min=1,dive"`
	PaidChurnReason []Weighted `json:"paid_churn_reason" yaml:"paid_churn_reason" mapstructure:"paid_churn_reason" validate:"min=1,dive"`
	PaymentStatus   []Weighted `json:"payment_status" yaml:"payment_status" mapstructure:"payment_status" validate:"min=1,dive"`
	PaymentMethod   []Weighted `json:"payment_method" yaml:"payment_method" mapstructure:"payment_method" validate:"min=1,dive"`
	EventType       []Weighted `json:"event_type" yaml:"event_type" mapstructure:"event_type" validate:"min=1,dive"`
	EventPlan       []Weighted `json:"event_plan" yaml:"event_plan" mapstructure:"event_plan" validate:"min=1,dive"`
}

// Named returns the distributions keyed by their config name, in a fixed
// order.
func (d Distributions) Named() []NamedDistribution {
	return []NamedDistribution{
		{"country", d.Country},
		{"device_type", d.DeviceType},
		{"segment", d.Segment},
		{"plan", d.Plan},
		{"free_churn_reason", d.FreeChurnReason},
		{"paid_churn_reason", d.PaidChurnReason},
		{"payment_status", d.PaymentStatus},
		{"payment_method", d.PaymentMethod},
		{"event_type", d.EventType},
		{"event_plan", d.EventPlan},
	}
}

type NamedDistribution struct {
	Name    string
	Weights []Weighted
}

type Output struct {
	Dir       string `json:"dir" yaml:"dir" mapstructure:"dir" validate:"required"`
	Format    string `json:"format" yaml:"format" mapstructure:"format" validate:"oneof=csv sqlite postgres postgresql mysql"`
	Truncate  bool   `json:"truncate" yaml:"truncate" mapstructure:"truncate"`
	BatchSize int    `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size" validate:"gte=1,lte=10000"`
}

type Database struct {
	URLEnv string `json:"url_env" yaml:"url_env" mapstructure:"url_env"`
}

// Load decodes the global viper state on top of Default().
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom decodes v on top of Default(). Lists and maps present in v
// replace the defaults wholesale instead of being merged element-wise.
func LoadFrom(v *viper.Viper) (*Config, error) {
	cfg := Default()

	if err := v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.ZeroFields = true
	}); err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to unmarshal config").
			Mark(ierr.ErrConfiguration)
	}

	if cfg.Output.Format == "postgresql" {
		cfg.Output.Format = "postgres"
	}

	return cfg, nil
}

// Validate fails fast on anything that would make generation ill-defined.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		var msgs []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed '%s'", fe.Namespace(), fe.Tag()))
			}
		} else {
			msgs = append(msgs, err.Error())
		}
		return ierr.NewErrorf("invalid config: %s", strings.Join(msgs, "; ")).
			Mark(ierr.ErrConfiguration)
	}

	start, end, err := c.Horizon.Bounds()
	if err != nil {
		return err
	}
	if !start.Before(end) {
		return ierr.NewErrorf("horizon start %s must be before end %s", c.Horizon.Start, c.Horizon.End).
			Mark(ierr.ErrConfiguration)
	}

	for _, d := range c.Distributions.Named() {
		if err := CheckWeights(d.Name, d.Weights); err != nil {
			return err
		}
	}

	for _, w := range c.Distributions.Plan {
		if _, ok := c.Plans.Price(w.Value); !ok {
			return ierr.NewErrorf("plan %q has no price", w.Value).
				WithHint("add it under plans.prices").
				Mark(ierr.ErrConfiguration)
		}
	}
	if _, ok := c.Plans.Price(c.Plans.Free); !ok {
		return ierr.NewErrorf("free plan %q has no price", c.Plans.Free).
			Mark(ierr.ErrConfiguration)
	}

	return nil
}

// CheckWeights verifies a categorical distribution: no duplicate values,
// non-negative weights summing to 1.
func CheckWeights(name string, weights []Weighted) error {
	if len(weights) == 0 {
		return ierr.NewErrorf("distribution %s is empty", name).Mark(ierr.ErrConfiguration)
	}
	seen := make(map[string]bool, len(weights))
	sum := 0.0
	for _, w := range weights {
		if seen[w.Value] {
			return ierr.NewErrorf("distribution %s lists %q twice", name, w.Value).
				Mark(ierr.ErrConfiguration)
		}
		seen[w.Value] = true
		if w.Weight < 0 || math.IsNaN(w.Weight) {
			return ierr.NewErrorf("distribution %s has invalid weight %v for %q", name, w.Weight, w.Value).
				Mark(ierr.ErrConfiguration)
		}
		sum += w.Weight
	}
	if math.Abs(sum-1) > weightTolerance {
		return ierr.NewErrorf("distribution %s weights sum to %.6f, expected 1", name, sum).
			Mark(ierr.ErrConfiguration)
	}
	return nil
}

// Bounds parses the horizon as UTC calendar dates.
func (h Horizon) Bounds() (time.Time, time.Time, error) {
	start, err := time.Parse(DateLayout, h.Start)
	if err != nil {
		return time.Time{}, time.Time{}, ierr.WithError(err).
			WithMessagef("invalid horizon start %q", h.Start).
			WithHint("dates use the YYYY-MM-DD format").
			Mark(ierr.ErrConfiguration)
	}
	end, err := time.Parse(DateLayout, h.End)
	if err != nil {
		return time.Time{}, time.Time{}, ierr.WithError(err).
			WithMessagef("invalid horizon end %q", h.End).
			WithHint("dates use the YYYY-MM-DD format").
			Mark(ierr.ErrConfiguration)
	}
	return start, end, nil
}

// IsDatabase reports whether the output goes to a database server.
func (o Output) IsDatabase() bool {
	return o.Format == "postgres" || o.Format == "mysql"
}

func (c *Config) GetDatabaseURL() (string, error) {
	dbURL := os.Getenv(c.Database.URLEnv)
	if dbURL == "" {
		return "", ierr.NewErrorf("database URL not found in environment variable %s", c.Database.URLEnv).
			WithHint("set it in your shell or in .env").
			Mark(ierr.ErrConfiguration)
	}
	return dbURL, nil
}
