package dataset

import (
	"time"

	"github.com/shopspring/decimal"
)

type Channel struct {
	ID        int64
	Name      string
	Campaign  string
	UTMMedium string
	UTMSource string
	CAC       decimal.Decimal
}

func (c Channel) Values() []any {
	return []any{c.ID, c.Name, c.Campaign, c.UTMMedium, c.UTMSource, c.CAC}
}

type Customer struct {
	ID                   int64
	SignupDate           time.Time
	Country              string
	DeviceType           string
	Segment              string
	AcquisitionChannelID int64
	ChurnedDate          *time.Time
}

// IsActive is derived from ChurnedDate so the two can never disagree.
func (c Customer) IsActive() bool {
	return c.ChurnedDate == nil
}

// ActiveUntil is the last day the customer can produce activity.
func (c Customer) ActiveUntil(horizonEnd time.Time) time.Time {
	if c.ChurnedDate != nil {
		return *c.ChurnedDate
	}
	return horizonEnd
}

func (c Customer) Values() []any {
	return []any{c.ID, c.SignupDate, c.Country, c.DeviceType, c.Segment, c.AcquisitionChannelID, nullTime(c.ChurnedDate), c.IsActive()}
}

type Subscription struct {
	ID            int64
	CustomerID    int64
	Plan          string
	StartDate     time.Time
	EndDate       *time.Time
	BillingPeriod string
	TrialStart    *time.Time
	TrialEnd      *time.Time
	ChurnReason   *string
}

func (s Subscription) IsActive() bool {
	return s.EndDate == nil
}

// BillableUntil is the last day a payment may fall on.
func (s Subscription) BillableUntil(horizonEnd time.Time) time.Time {
	if s.EndDate != nil {
		return *s.EndDate
	}
	return horizonEnd
}

func (s Subscription) Values() []any {
	var reason any
	if s.ChurnReason != nil {
		reason = *s.ChurnReason
	}
	return []any{
		s.ID, s.CustomerID, s.Plan, s.StartDate, nullTime(s.EndDate), s.IsActive(),
		s.BillingPeriod, nullTime(s.TrialStart), nullTime(s.TrialEnd), reason,
	}
}

const (
	PaymentSuccess  = "success"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

type Payment struct {
	ID             int64
	SubscriptionID int64
	Date           time.Time
	Amount         decimal.Decimal
	Status         string
	Method         string
	InvoiceID      string
	IsRenewal      bool
}

func (p Payment) Values() []any {
	return []any{p.ID, p.SubscriptionID, p.Date, p.Amount, p.Status, p.Method, p.InvoiceID, p.IsRenewal}
}

type UserEvent struct {
	ID         int64
	CustomerID int64
	Timestamp  time.Time
	Type       string
	DeviceType string
	Plan       string
	SessionID  string
}

func (e UserEvent) Values() []any {
	return []any{e.ID, e.CustomerID, e.Timestamp, e.Type, e.DeviceType, e.Plan, e.SessionID}
}

// nullTime keeps a nil *time.Time as an untyped nil so sinks see NULL.
func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
