package dataset

// Kind is the logical type of a column; sinks map it to their own types.
type Kind int

const (
	KindInt Kind = iota
	KindText
	KindDate
	KindTimestamp
	KindMoney
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindText:
		return "text"
	case KindDate:
		return "date"
	case KindTimestamp:
		return "timestamp"
	case KindMoney:
		return "money"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

type Column struct {
	Name     string
	Kind     Kind
	Nullable bool
	// References names the table whose primary key this column points at.
	References string
}

// Schema is a table's name plus its ordered column contract. The first
// column is the primary key.
type Schema struct {
	Name    string
	Columns []Column
}

func (s Schema) PrimaryKey() Column {
	return s.Columns[0]
}

func (s Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Dependencies lists the tables referenced by foreign-key columns.
func (s Schema) Dependencies() []string {
	var deps []string
	for _, c := range s.Columns {
		if c.References != "" && c.References != s.Name {
			deps = append(deps, c.References)
		}
	}
	return deps
}

const (
	TableChannels      = "marketing_channels"
	TableCustomers     = "customers"
	TableSubscriptions = "subscriptions"
	TablePayments      = "payments"
	TableEvents        = "user_events"
)

var (
	ChannelSchema = Schema{
		Name: TableChannels,
		Columns: []Column{
			{Name: "channel_id", Kind: KindInt},
			{Name: "channel_name", Kind: KindText},
			{Name: "campaign_name", Kind: KindText},
			{Name: "utm_medium", Kind: KindText},
			{Name: "utm_source", Kind: KindText},
			{Name: "cac_usd", Kind: KindMoney},
		},
	}

	CustomerSchema = Schema{
		Name: TableCustomers,
		Columns: []Column{
			{Name: "customer_id", Kind: KindInt},
			{Name: "signup_date", Kind: KindDate},
			{Name: "country", Kind: KindText},
			{Name: "device_type", Kind: KindText},
			{Name: "segment", Kind: KindText},
			{Name: "acquisition_channel_id", Kind: KindInt, References: TableChannels},
			{Name: "churned_date", Kind: KindDate, Nullable: true},
			{Name: "is_active", Kind: KindBool},
		},
	}

	SubscriptionSchema = Schema{
		Name: TableSubscriptions,
		Columns: []Column{
			{Name: "subscription_id", Kind: KindInt},
			{Name: "customer_id", Kind: KindInt, References: TableCustomers},
			{Name: "plan_name", Kind: KindText},
			{Name: "subscription_start_date", Kind: KindDate},
			{Name: "subscription_end_date", Kind: KindDate, Nullable: true},
			{Name: "is_active", Kind: KindBool},
			{Name: "billing_period", Kind: KindText},
			{Name: "trial_start_date", Kind: KindDate, Nullable: true},
			{Name: "trial_end_date", Kind: KindDate, Nullable: true},
			{Name: "churn_reason", Kind: KindText, Nullable: true},
		},
	}

	PaymentSchema = Schema{
		Name: TablePayments,
		Columns: []Column{
			{Name: "payment_id", Kind: KindInt},
			{Name: "subscription_id", Kind: KindInt, References: TableSubscriptions},
			{Name: "payment_date", Kind: KindDate},
			{Name: "amount_usd", Kind: KindMoney},
			{Name: "payment_status", Kind: KindText},
			{Name: "payment_method", Kind: KindText},
			{Name: "invoice_id", Kind: KindText},
			{Name: "is_renewal", Kind: KindBool},
		},
	}

	EventSchema = Schema{
		Name: TableEvents,
		Columns: []Column{
			{Name: "event_id", Kind: KindInt},
			{Name: "customer_id", Kind: KindInt, References: TableCustomers},
			{Name: "event_timestamp", Kind: KindTimestamp},
			{Name: "event_type", Kind: KindText},
			{Name: "device_type", Kind: KindText},
			{Name: "plan_name_at_event", Kind: KindText},
			{Name: "session_id", Kind: KindText},
		},
	}
)

// Schemas returns every table contract.
func Schemas() []Schema {
	return []Schema{ChannelSchema, CustomerSchema, SubscriptionSchema, PaymentSchema, EventSchema}
}
