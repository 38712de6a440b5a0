package config

// Default returns the configuration that reproduces the reference
// FlowPulse dataset: 40k customers over 2023-2025, seed 42.
func Default() *Config {
	return &Config{
		Environment: "development",
		Seed:        42,
		Workers:     4,
		Horizon: Horizon{
			Start: "2023-01-01",
			End:   "2025-12-31",
		},
		Channels: Channels{
			CampaignsPerChannel: 2,
			CACStdDev:           5,
			Catalog: []ChannelSpec{
				{Name: "facebook_ads", BaseCAC: 50},
				{Name: "google_ads", BaseCAC: 60},
				{Name: "tiktok_ads", BaseCAC: 40},
				{Name: "seo", BaseCAC: 25},
				{Name: "referral", BaseCAC: 15},
				{Name: "partnerships", BaseCAC: 70},
			},
		},
		Customers: Customers{
			Count:         40000,
			ChurnRate:     0.35,
			RetentionDays: IntRange{Min: 30, Max: 600},
		},
		Subscriptions: Subscriptions{
			TrialDays:     14,
			BillingPeriod: "monthly",
		},
		Plans: Plans{
			Free: "free",
			Prices: map[string]float64{
				"free":  0,
				"basic": 9,
				"pro":   19,
				"team":  49,
			},
		},
		Payments: Payments{
			CycleDays: 30,
		},
		Events: Events{
			Average:      40,
			Minimum:      5,
			ActiveBonus:  IntRange{Min: 10, Max: 40},
			ChurnPenalty: IntRange{Min: 0, Max: 10},
		},
		Distributions: Distributions{
			Country: []Weighted{
				{"US", 0.4}, {"UK", 0.15}, {"CA", 0.1}, {"DE", 0.1}, {"IN", 0.15}, {"AU", 0.1},
			},
			DeviceType: []Weighted{
				{"web", 0.4}, {"ios", 0.3}, {"android", 0.3},
			},
			Segment: []Weighted{
				{"freelancer", 0.35}, {"startup_employee", 0.3}, {"enterprise_employee", 0.2}, {"student", 0.15},
			},
			Plan: []Weighted{
				{"free", 0.4}, {"basic", 0.3}, {"pro", 0.2}, {"team", 0.1},
			},
			FreeChurnReason: []Weighted{
				{"not_using", 0.25}, {"price", 0.1}, {"competitor", 0.1}, {"technical", 0.05}, {NoReason, 0.5},
			},
			PaidChurnReason: []Weighted{
				{"not_using", 0.25}, {"price", 0.2}, {"competitor", 0.1}, {"technical", 0.05}, {NoReason, 0.4},
			},
			PaymentStatus: []Weighted{
				{"success", 0.9}, {"failed", 0.07}, {"refunded", 0.03},
			},
			PaymentMethod: []Weighted{
				{"card", 0.25}, {"paypal", 0.25}, {"apple_pay", 0.25}, {"google_pay", 0.25},
			},
			EventType: []Weighted{
				{"signup", 0.02}, {"login", 0.3}, {"task_created", 0.25}, {"task_completed", 0.25},
				{"reminder_set", 0.1}, {"plan_upgraded", 0.03}, {"plan_downgraded", 0.03}, {"subscription_canceled", 0.02},
			},
			EventPlan: []Weighted{
				{"free", 0.25}, {"basic", 0.25}, {"pro", 0.25}, {"team", 0.25},
			},
		},
		Output: Output{
			Dir:       "data/raw",
			Format:    "csv",
			BatchSize: 100,
		},
		Database: Database{
			URLEnv: "DATABASE_URL",
		},
	}
}

// NoReason is the churn-reason outcome that leaves churn_reason empty.
const NoReason = "none"
