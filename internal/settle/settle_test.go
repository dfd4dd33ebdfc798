package settle

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var aliceBob = []Member{{ID: "A", Name: "Alice"}, {ID: "B", Name: "Bob"}}

func TestCalculate(t *testing.T) {
	lunch := []Expense{{Amount: 20, PayerID: "A", InvolvedMemberIDs: []string{"A", "B"}}}

	tests := []struct {
		name        string
		expenses    []Expense
		members     []Member
		settlements []Settlement
		want        []Transaction
	}{
		{
			name:     "basic debt",
			expenses: lunch,
			members:  aliceBob,
			want:     []Transaction{{From: "Bob", To: "Alice", Amount: 10}},
		},
		{
			name:        "full settlement clears the debt",
			expenses:    lunch,
			members:     aliceBob,
			settlements: []Settlement{{Amount: 10, PayerID: "B", ReceiverID: "A"}},
			want:        []Transaction{},
		},
		{
			name:        "partial settlement leaves the residual",
			expenses:    lunch,
			members:     aliceBob,
			settlements: []Settlement{{Amount: 5, PayerID: "B", ReceiverID: "A"}},
			want:        []Transaction{{From: "Bob", To: "Alice", Amount: 5}},
		},
		{
			name: "round robin nets to zero",
			expenses: []Expense{
				{Amount: 30, PayerID: "A", InvolvedMemberIDs: []string{"A", "B", "C"}},
				{Amount: 30, PayerID: "B", InvolvedMemberIDs: []string{"A", "B", "C"}},
				{Amount: 30, PayerID: "C", InvolvedMemberIDs: []string{"A", "B", "C"}},
			},
			members: []Member{{ID: "A", Name: "Alice"}, {ID: "B", Name: "Bob"}, {ID: "C", Name: "Carol"}},
			want:    []Transaction{},
		},
		{
			name:     "empty involved set is ignored",
			expenses: []Expense{{Amount: 50, PayerID: "A", InvolvedMemberIDs: []string{}}},
			members:  aliceBob,
			want:     []Transaction{},
		},
		{
			name:     "nil involved set is ignored",
			expenses: []Expense{{Amount: 50, PayerID: "A"}},
			members:  aliceBob,
			want:     []Transaction{},
		},
		{
			name:     "unknown member resolves to placeholder",
			expenses: []Expense{{Amount: 20, PayerID: "A", InvolvedMemberIDs: []string{"A", "Z"}}},
			members:  aliceBob,
			want:     []Transaction{{From: UnknownName, To: "Alice", Amount: 10}},
		},
		{
			name:     "payer outside the involved set gets the full amount back",
			expenses: []Expense{{Amount: 30, PayerID: "A", InvolvedMemberIDs: []string{"B", "C"}}},
			members:  []Member{{ID: "A", Name: "Alice"}, {ID: "B", Name: "Bob"}, {ID: "C", Name: "Carol"}},
			want: []Transaction{
				{From: "Bob", To: "Alice", Amount: 15},
				{From: "Carol", To: "Alice", Amount: 15},
			},
		},
		{
			name: "largest debtor pays largest creditor first",
			expenses: []Expense{
				{Amount: 90, PayerID: "A", InvolvedMemberIDs: []string{"A", "B", "C"}},
				{Amount: 30, PayerID: "B", InvolvedMemberIDs: []string{"B", "C"}},
			},
			members: []Member{{ID: "A", Name: "Alice"}, {ID: "B", Name: "Bob"}, {ID: "C", Name: "Carol"}},
			// A +60, B -15, C -45
			want: []Transaction{
				{From: "Carol", To: "Alice", Amount: 45},
				{From: "Bob", To: "Alice", Amount: 15},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(tt.expenses, tt.members, tt.settlements)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.Equal(t, tt.want[i].From, got[i].From)
				assert.Equal(t, tt.want[i].To, got[i].To)
				assert.InDelta(t, tt.want[i].Amount, got[i].Amount, 1e-9)
			}
		})
	}
}

func TestAccumulate(t *testing.T) {
	t.Run("every member appears", func(t *testing.T) {
		members := []Member{{ID: "A", Name: "Alice"}, {ID: "B", Name: "Bob"}, {ID: "C", Name: "Carol"}}
		b := Accumulate(nil, members, nil)
		assert.Len(t, b, 3)
		assert.Zero(t, b.Get("C"))
	})

	t.Run("basic balances", func(t *testing.T) {
		b := Accumulate([]Expense{{Amount: 20, PayerID: "A", InvolvedMemberIDs: []string{"A", "B"}}}, aliceBob, nil)
		assert.InDelta(t, 10, b.Get("A"), 1e-9)
		assert.InDelta(t, -10, b.Get("B"), 1e-9)
	})

	t.Run("empty involved set leaves balances untouched", func(t *testing.T) {
		b := Accumulate([]Expense{{Amount: 20, PayerID: "A", InvolvedMemberIDs: []string{}}}, aliceBob, nil)
		assert.Zero(t, b.Get("A"))
		assert.Zero(t, b.Get("B"))
		assert.False(t, math.IsNaN(b.Total()))
	})

	t.Run("empty ids are not counted in the split", func(t *testing.T) {
		b := Accumulate([]Expense{{Amount: 20, PayerID: "A", InvolvedMemberIDs: []string{"A", "", "B"}}}, aliceBob, nil)
		assert.InDelta(t, 10, b.Get("A"), 1e-9)
		assert.InDelta(t, -10, b.Get("B"), 1e-9)
		assert.NotContains(t, b, "")
	})

	t.Run("settlement with unknown ids", func(t *testing.T) {
		b := Accumulate(nil, aliceBob, []Settlement{{Amount: 7, PayerID: "X", ReceiverID: "Y"}})
		assert.InDelta(t, 7, b.Get("X"), 1e-9)
		assert.InDelta(t, -7, b.Get("Y"), 1e-9)
	})

	t.Run("inputs are not modified", func(t *testing.T) {
		involved := []string{"A", "B"}
		expenses := []Expense{{Amount: 20, PayerID: "A", InvolvedMemberIDs: involved}}
		_ = Calculate(expenses, aliceBob, nil)
		assert.Equal(t, []string{"A", "B"}, involved)
		assert.Equal(t, 20.0, expenses[0].Amount)
	})
}

func TestMinimizeDriftIsSettled(t *testing.T) {
	b := Balances{"A": 0.004, "B": -0.004, "C": 5, "D": -4.995}
	got := Minimize(b, []Member{{ID: "C", Name: "Carol"}, {ID: "D", Name: "Dan"}})
	require.Len(t, got, 1)
	assert.Equal(t, "Dan", got[0].From)
	assert.Equal(t, "Carol", got[0].To)
	assert.InDelta(t, 4.995, got[0].Amount, 1e-9)
}

func TestMinimizeTieBreakByID(t *testing.T) {
	b := Balances{"b": -5, "a": -5, "c": 10}
	members := []Member{{ID: "a", Name: "Ann"}, {ID: "b", Name: "Ben"}, {ID: "c", Name: "Cid"}}
	got := Minimize(b, members)
	require.Len(t, got, 2)
	assert.Equal(t, "Ann", got[0].From)
	assert.Equal(t, "Ben", got[1].From)
}

func TestInvariants(t *testing.T) {
	members := []Member{
		{ID: "m1", Name: "Alice"}, {ID: "m2", Name: "Bob"},
		{ID: "m3", Name: "Charlie"}, {ID: "m4", Name: "Dana"},
	}
	expenses := []Expense{
		{Amount: 30, PayerID: "m1", InvolvedMemberIDs: []string{"m1", "m2", "m3"}},
		{Amount: 30, PayerID: "m2", InvolvedMemberIDs: []string{"m1", "m2", "m3"}},
		{Amount: 30, PayerID: "m3", InvolvedMemberIDs: []string{"m1", "m2", "m3"}},
		{Amount: 50, PayerID: "m1", InvolvedMemberIDs: []string{"m1", "m2"}},
		{Amount: 100, PayerID: "m4", InvolvedMemberIDs: []string{"m1", "m2", "m3", "m4"}},
		{Amount: 10, PayerID: "m3", InvolvedMemberIDs: []string{"m1", "m2", "m3"}},
	}
	settlements := []Settlement{{Amount: 12.5, PayerID: "m2", ReceiverID: "m4"}}

	balances := Accumulate(expenses, members, settlements)
	assert.InDelta(t, 0, balances.Total(), Epsilon, "conservation")

	var credit, debt float64
	for _, b := range balances {
		if math.Abs(b) < Epsilon {
			continue
		}
		if b > 0 {
			credit += b
		} else {
			debt -= b
		}
	}

	first := Minimize(balances, members)
	var moved float64
	for _, tx := range first {
		assert.Positive(t, tx.Amount)
		assert.NotEqual(t, tx.From, tx.To)
		moved += tx.Amount
	}
	assert.InDelta(t, credit, moved, Epsilon, "matching totals against credit")
	assert.InDelta(t, debt, moved, Epsilon, "matching totals against debt")
	assert.LessOrEqual(t, len(first), len(members)-1)

	second := Calculate(expenses, members, settlements)
	assert.Equal(t, first, second, "idempotence")
}

func TestConcurrentCalculate(t *testing.T) {
	expenses := []Expense{{Amount: 20, PayerID: "A", InvolvedMemberIDs: []string{"A", "B"}}}
	done := make(chan []Transaction, 8)
	for n := 0; n < cap(done); n++ {
		go func() { done <- Calculate(expenses, aliceBob, nil) }()
	}
	for n := 0; n < cap(done); n++ {
		got := <-done
		require.Len(t, got, 1)
		assert.Equal(t, Transaction{From: "Bob", To: "Alice", Amount: 10}, got[0])
	}
}
