package group

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/susu3304/billdividr/internal/settle"
)

// Summary recomputes the group's balances and suggested payments from the
// current ledger.
func (s *Service) Summary(ctx context.Context, groupID string) (*Summary, error) {
	snap, err := s.snapshot(ctx, groupID)
	if err != nil {
		return nil, err
	}
	sum := buildSummary(groupID, snap)
	s.log.Debug("summary computed",
		zap.String("group_id", groupID),
		zap.Int("pending", len(sum.Pending)),
		zap.Int("expenses", len(snap.Expenses)),
	)
	return sum, nil
}

func buildSummary(groupID string, snap *Snapshot) *Summary {
	expenses, members, settlements := snap.engineInput()
	balances := settle.Accumulate(expenses, members, settlements)

	sum := &Summary{
		GroupID:  groupID,
		Balances: make([]MemberBalance, 0, len(snap.Members)),
		Pending:  settle.Minimize(balances, members),
		History:  make([]PaidTransaction, 0, len(snap.Settlements)),
	}

	for _, e := range snap.Expenses {
		if len(e.InvolvedMemberIDs) > 0 {
			sum.TotalSpent += e.Amount
		}
	}

	for _, m := range snap.Members {
		sum.Balances = append(sum.Balances, MemberBalance{
			MemberID: m.ID,
			Name:     m.Name,
			Active:   m.Active,
			Balance:  balances.Get(m.ID),
		})
	}
	sort.SliceStable(sum.Balances, func(i, j int) bool {
		return sum.Balances[i].Balance > sum.Balances[j].Balance
	})

	name := func(id string) string {
		if m, ok := findMember(snap.Members, id); ok && m.Name != "" {
			return m.Name
		}
		return settle.UnknownName
	}
	for _, st := range snap.Settlements {
		sum.History = append(sum.History, PaidTransaction{
			ID:        st.ID,
			From:      name(st.PayerID),
			To:        name(st.ReceiverID),
			Amount:    st.Amount,
			CreatedAt: st.CreatedAt,
		})
	}

	return sum
}

// Owes returns what debtorID can pay creditorID without either side
// overshooting zero: the smaller of the debt and the credit.
func (sum *Summary) Owes(debtorID, creditorID string) float64 {
	var debt, credit float64
	for _, b := range sum.Balances {
		switch b.MemberID {
		case debtorID:
			debt = -b.Balance
		case creditorID:
			credit = b.Balance
		}
	}
	if debtorID == creditorID || debt < settle.Epsilon || credit < settle.Epsilon {
		return 0
	}
	return math.Min(debt, credit)
}
