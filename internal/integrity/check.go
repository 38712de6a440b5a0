// Package integrity verifies the relational and temporal invariants of a
// generated dataset.
package integrity

import (
	"fmt"
	"slices"
	"time"

	"github.com/Lumos-Labs-HQ/flowpulse/internal/dataset"
	"github.com/samber/lo"
)

const (
	RuleForeignKey        = "foreign_key"
	RuleChurnWindow       = "churn_window"
	RuleSubscriptionStart = "subscription_start"
	RuleSubscriptionEnd   = "subscription_end"
	RuleOnePerCustomer    = "one_subscription_per_customer"
	RuleTrialWindow       = "trial_window"
	RuleChurnReason       = "churn_reason"
	RulePaymentWindow     = "payment_window"
	RulePaymentAmount     = "payment_amount"
	RuleFreePayment       = "free_plan_payment"
	RuleEventWindow       = "event_window"
	RuleSessionID         = "unique_session_id"
)

type Violation struct {
	Table  string
	RowID  int64
	Rule   string
	Detail string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s[%d] %s: %s", v.Table, v.RowID, v.Rule, v.Detail)
}

// Checker walks every table once. Limit caps the violations collected
// (0 means unlimited).
type Checker struct {
	HorizonEnd time.Time
	FreePlan   string
	Limit      int

	violations []Violation
}

func NewChecker(horizonEnd time.Time, freePlan string) *Checker {
	return &Checker{HorizonEnd: horizonEnd, FreePlan: freePlan}
}

// Check returns every violation found in ds, in table order.
func (c *Checker) Check(ds *dataset.Dataset) []Violation {
	c.violations = nil

	channels := lo.SliceToMap(rows(ds.Channels), func(ch dataset.Channel) (int64, bool) {
		return ch.ID, true
	})
	customers := lo.KeyBy(rows(ds.Customers), func(cu dataset.Customer) int64 { return cu.ID })
	subs := lo.KeyBy(rows(ds.Subscriptions), func(s dataset.Subscription) int64 { return s.ID })

	c.checkCustomers(ds, channels)
	c.checkSubscriptions(ds, customers)
	c.checkPayments(ds, subs)
	c.checkEvents(ds, customers)

	return c.violations
}

func (c *Checker) checkCustomers(ds *dataset.Dataset, channels map[int64]bool) {
	for _, cu := range ds.Customers.All() {
		if !channels[cu.AcquisitionChannelID] {
			c.report(dataset.TableCustomers, cu.ID, RuleForeignKey,
				"acquisition_channel_id %d does not resolve", cu.AcquisitionChannelID)
		}
		if cu.ChurnedDate != nil {
			if cu.ChurnedDate.Before(cu.SignupDate) || cu.ChurnedDate.After(c.HorizonEnd) {
				c.report(dataset.TableCustomers, cu.ID, RuleChurnWindow,
					"churned_date %s outside [%s, %s]", day(*cu.ChurnedDate), day(cu.SignupDate), day(c.HorizonEnd))
			}
		}
	}
}

func (c *Checker) checkSubscriptions(ds *dataset.Dataset, customers map[int64]dataset.Customer) {
	perCustomer := make(map[int64]int, len(customers))
	for _, s := range ds.Subscriptions.All() {
		perCustomer[s.CustomerID]++

		cu, ok := customers[s.CustomerID]
		if !ok {
			c.report(dataset.TableSubscriptions, s.ID, RuleForeignKey, "customer_id %d does not resolve", s.CustomerID)
			continue
		}
		if s.StartDate.Before(cu.SignupDate) {
			c.report(dataset.TableSubscriptions, s.ID, RuleSubscriptionStart,
				"start %s before signup %s", day(s.StartDate), day(cu.SignupDate))
		}
		if !sameDate(s.EndDate, cu.ChurnedDate) {
			c.report(dataset.TableSubscriptions, s.ID, RuleSubscriptionEnd, "end date does not match customer churn")
		}
		if s.TrialStart != nil || s.TrialEnd != nil {
			if s.TrialStart == nil || s.TrialEnd == nil || s.TrialEnd.Before(*s.TrialStart) || s.TrialEnd.After(s.StartDate) {
				c.report(dataset.TableSubscriptions, s.ID, RuleTrialWindow, "trial window does not precede start")
			}
		}
		if s.EndDate == nil && s.ChurnReason != nil {
			c.report(dataset.TableSubscriptions, s.ID, RuleChurnReason, "active subscription has churn_reason %q", *s.ChurnReason)
		}
	}
	ids := lo.Keys(perCustomer)
	slices.Sort(ids)
	for _, id := range ids {
		if n := perCustomer[id]; n > 1 {
			c.report(dataset.TableSubscriptions, id, RuleOnePerCustomer, "customer %d has %d subscriptions", id, n)
		}
	}
	if missing := len(customers) - len(perCustomer); missing > 0 {
		c.report(dataset.TableSubscriptions, 0, RuleOnePerCustomer, "%d customers have no subscription", missing)
	}
}

func (c *Checker) checkPayments(ds *dataset.Dataset, subs map[int64]dataset.Subscription) {
	for _, p := range ds.Payments.All() {
		s, ok := subs[p.SubscriptionID]
		if !ok {
			c.report(dataset.TablePayments, p.ID, RuleForeignKey, "subscription_id %d does not resolve", p.SubscriptionID)
			continue
		}
		if s.Plan == c.FreePlan {
			c.report(dataset.TablePayments, p.ID, RuleFreePayment, "payment on free subscription %d", s.ID)
		}
		until := s.BillableUntil(c.HorizonEnd)
		if p.Date.Before(s.StartDate) || p.Date.After(until) {
			c.report(dataset.TablePayments, p.ID, RulePaymentWindow,
				"payment_date %s outside [%s, %s]", day(p.Date), day(s.StartDate), day(until))
		}
		if p.Status != dataset.PaymentSuccess && !p.Amount.IsZero() {
			c.report(dataset.TablePayments, p.ID, RulePaymentAmount, "%s payment carries amount %s", p.Status, p.Amount.StringFixed(2))
		}
	}
}

func (c *Checker) checkEvents(ds *dataset.Dataset, customers map[int64]dataset.Customer) {
	sessions := make(map[string]int64, ds.Events.Len())
	for _, e := range ds.Events.All() {
		if first, dup := sessions[e.SessionID]; dup {
			c.report(dataset.TableEvents, e.ID, RuleSessionID, "session_id %s already used by event %d", e.SessionID, first)
		} else {
			sessions[e.SessionID] = e.ID
		}

		cu, ok := customers[e.CustomerID]
		if !ok {
			c.report(dataset.TableEvents, e.ID, RuleForeignKey, "customer_id %d does not resolve", e.CustomerID)
			continue
		}
		// the last active day counts in full
		until := cu.ActiveUntil(c.HorizonEnd)
		if e.Timestamp.Before(cu.SignupDate) || !e.Timestamp.Before(until.AddDate(0, 0, 1)) {
			c.report(dataset.TableEvents, e.ID, RuleEventWindow,
				"event_timestamp %s outside [%s, %s]", e.Timestamp.Format(dataset.TimestampLayout), day(cu.SignupDate), day(until))
		}
	}
}

func (c *Checker) report(table string, id int64, rule, format string, args ...any) {
	if c.Limit > 0 && len(c.violations) >= c.Limit {
		return
	}
	c.violations = append(c.violations, Violation{
		Table:  table,
		RowID:  id,
		Rule:   rule,
		Detail: fmt.Sprintf(format, args...),
	})
}

func rows[R dataset.Record](t *dataset.Table[R]) []R {
	out := make([]R, 0, t.Len())
	for _, r := range t.All() {
		out = append(out, r)
	}
	return out
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func day(t time.Time) string {
	return t.Format(dataset.DateLayout)
}
