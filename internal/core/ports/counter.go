package ports

// CounterField names an engagement counter on a listing.
type CounterField string

const (
	CounterViews    CounterField = "views"
	CounterInterest CounterField = "interest"
)

// CounterUpdate is one best-effort increment, applied asynchronously.
type CounterUpdate struct {
	ItemID string
	Field  CounterField
}
