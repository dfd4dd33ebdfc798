package group

import (
	"time"

	"github.com/susu3304/billdividr/internal/settle"
)

type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     string    `json:"owner_id"`
	ChannelID   string    `json:"channel_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Member struct {
	ID            string    `json:"id"`
	GroupID       string    `json:"group_id"`
	Name          string    `json:"name"`
	DiscordUserID string    `json:"discord_user_id,omitempty"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
}

type Expense struct {
	ID                string    `json:"id"`
	GroupID           string    `json:"group_id"`
	Description       string    `json:"description"`
	Amount            float64   `json:"amount"`
	PayerID           string    `json:"payer_id"`
	InvolvedMemberIDs []string  `json:"involved_member_ids"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Settlement is a recorded payment between two members.
type Settlement struct {
	ID         string    `json:"id"`
	GroupID    string    `json:"group_id"`
	Amount     float64   `json:"amount"`
	PayerID    string    `json:"payer_id"`
	ReceiverID string    `json:"receiver_id"`
	RecordedBy string    `json:"recorded_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type MemberBalance struct {
	MemberID string  `json:"member_id"`
	Name     string  `json:"name"`
	Active   bool    `json:"active"`
	Balance  float64 `json:"balance"`
}

// PaidTransaction is a recorded settlement rendered with member names.
type PaidTransaction struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary is the settle-up view of a group: who owes what now, the payments
// that would clear it, and what has already been paid.
type Summary struct {
	GroupID    string               `json:"group_id"`
	TotalSpent float64              `json:"total_spent"`
	Balances   []MemberBalance      `json:"balances"`
	Pending    []settle.Transaction `json:"pending"`
	History    []PaidTransaction    `json:"history"`
}

// Snapshot is everything the engine needs for one group.
type Snapshot struct {
	Members     []Member
	Expenses    []Expense
	Settlements []Settlement
}

func (s Snapshot) engineInput() ([]settle.Expense, []settle.Member, []settle.Settlement) {
	members := make([]settle.Member, 0, len(s.Members))
	for _, m := range s.Members {
		members = append(members, settle.Member{ID: m.ID, Name: m.Name})
	}
	expenses := make([]settle.Expense, 0, len(s.Expenses))
	for _, e := range s.Expenses {
		expenses = append(expenses, settle.Expense{
			Amount:            e.Amount,
			PayerID:           e.PayerID,
			InvolvedMemberIDs: e.InvolvedMemberIDs,
		})
	}
	settlements := make([]settle.Settlement, 0, len(s.Settlements))
	for _, st := range s.Settlements {
		settlements = append(settlements, settle.Settlement{
			Amount:     st.Amount,
			PayerID:    st.PayerID,
			ReceiverID: st.ReceiverID,
		})
	}
	return expenses, members, settlements
}
