// Package settle computes net balances for a group and the short list of
// payments that brings every balance back to zero.
//
// The functions here are pure: they never modify their arguments and keep
// no state between calls, so callers re-run them on every change.
package settle

import (
	"math"
	"sort"
)

// Accumulate folds expenses and settlements into one net balance per member.
// Every member in members is present in the result, even without activity.
// Ids that are not in members are accepted and start from zero.
func Accumulate(expenses []Expense, members []Member, settlements []Settlement) Balances {
	balances := make(Balances, len(members))
	for _, m := range members {
		balances[m.ID] = 0
	}

	for _, e := range expenses {
		involved := nonEmpty(e.InvolvedMemberIDs)
		if len(involved) == 0 {
			continue
		}
		share := e.Amount / float64(len(involved))

		balances[e.PayerID] += e.Amount
		for _, id := range involved {
			balances[id] -= share
		}
	}

	for _, s := range settlements {
		balances[s.PayerID] += s.Amount
		balances[s.ReceiverID] -= s.Amount
	}

	return balances
}

type position struct {
	id     string
	amount float64
}

// Minimize matches debtors against creditors, largest first, and returns the
// suggested payments in emission order. Balances within Epsilon of zero are
// treated as settled. Equal magnitudes are ordered by member id.
func Minimize(balances Balances, members []Member) []Transaction {
	var debtors, creditors []position
	for id, b := range balances {
		if math.Abs(b) < Epsilon {
			continue
		}
		if b > 0 {
			creditors = append(creditors, position{id: id, amount: b})
		} else {
			debtors = append(debtors, position{id: id, amount: -b})
		}
	}

	sortPositions(debtors)
	sortPositions(creditors)

	names := nameLookup(members)

	transactions := []Transaction{}
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		d := &debtors[i]
		c := &creditors[j]

		amount := math.Min(d.amount, c.amount)
		transactions = append(transactions, Transaction{
			From:   names.resolve(d.id),
			To:     names.resolve(c.id),
			Amount: amount,
		})

		d.amount -= amount
		c.amount -= amount

		if d.amount < Epsilon {
			i++
		}
		if c.amount < Epsilon {
			j++
		}
	}

	return transactions
}

// Calculate runs Accumulate followed by Minimize.
func Calculate(expenses []Expense, members []Member, settlements []Settlement) []Transaction {
	return Minimize(Accumulate(expenses, members, settlements), members)
}

func sortPositions(p []position) {
	sort.Slice(p, func(a, b int) bool {
		if p[a].amount != p[b].amount {
			return p[a].amount > p[b].amount
		}
		return p[a].id < p[b].id
	})
}

type names map[string]string

// nameLookup keeps the first name seen for an id.
func nameLookup(members []Member) names {
	n := make(names, len(members))
	for _, m := range members {
		if _, ok := n[m.ID]; !ok {
			n[m.ID] = m.Name
		}
	}
	return n
}

func (n names) resolve(id string) string {
	if name, ok := n[id]; ok && name != "" {
		return name
	}
	return UnknownName
}

func nonEmpty(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}
