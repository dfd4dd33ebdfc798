package settle

// Epsilon is the tolerance below which a balance or a remaining magnitude
// counts as settled.
const Epsilon = 0.01

// UnknownName is shown for member ids that are missing from the member list.
const UnknownName = "Unknown"

type Member struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Expense struct {
	Amount            float64  `json:"amount"`
	PayerID           string   `json:"payerId"`
	InvolvedMemberIDs []string `json:"involvedMemberIds"`
}

// Settlement is a payment that already happened outside the expense ledger.
type Settlement struct {
	Amount     float64 `json:"amount"`
	PayerID    string  `json:"payerId"`
	ReceiverID string  `json:"receiverId"`
}

// Transaction is a suggested payment from a debtor to a creditor, by name.
type Transaction struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

// Balances maps a member id to its net position. Positive means the member
// is owed money, negative means the member owes money.
type Balances map[string]float64

// Get returns the balance for id, zero when the id never appeared.
func (b Balances) Get(id string) float64 {
	return b[id]
}

// Total returns the sum of all balances. It is zero up to float drift.
func (b Balances) Total() float64 {
	var sum float64
	for _, v := range b {
		sum += v
	}
	return sum
}
