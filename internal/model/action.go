package model

// Action is the direction of a stock movement. The same values are used as
// Supplier.SupplierType: an "in" supplier is a source for stock-in, an "out"
// supplier is a destination for stock-out.
type Action string

const (
	ActionIn  Action = "in"
	ActionOut Action = "out"
)

// Valid reports whether a is one of the two known directions.
func (a Action) Valid() bool {
	return a == ActionIn || a == ActionOut
}

// Sign converts an unsigned magnitude to the ledger's signed convention:
// positive for stock-in, negative for stock-out.
func (a Action) Sign(magnitude int) int {
	if magnitude < 0 {
		magnitude = -magnitude
	}
	if a == ActionOut {
		return -magnitude
	}
	return magnitude
}
