package group

import (
	"context"
	"errors"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInvalidMember      = errors.New("member does not belong to the group")
	ErrNoParticipants     = errors.New("expense needs at least one participant")
	ErrSamePerson         = errors.New("payer and receiver must differ")
	ErrOutstandingBalance = errors.New("member has an outstanding balance")
	ErrChannelInUse       = errors.New("channel already has a group")
	ErrNameRequired       = errors.New("name is required")
)

// Store persists groups and their ledgers. Lookups that miss return
// ErrNotFound.
type Store interface {
	CreateGroup(ctx context.Context, g *Group) error
	GetGroup(ctx context.Context, id string) (*Group, error)
	GroupByChannel(ctx context.Context, channelID string) (*Group, error)
	ListGroups(ctx context.Context, ownerID string) ([]Group, error)
	UpdateGroup(ctx context.Context, g *Group) error
	DeleteGroup(ctx context.Context, id string) error

	AddMember(ctx context.Context, m *Member) error
	Members(ctx context.Context, groupID string) ([]Member, error)
	SetMemberActive(ctx context.Context, groupID, memberID string, active bool) error

	AddExpense(ctx context.Context, e *Expense) error
	UpdateExpense(ctx context.Context, e *Expense) error
	// UpdateExpenses applies all updates or none of them.
	UpdateExpenses(ctx context.Context, es []Expense) error
	DeleteExpense(ctx context.Context, groupID, expenseID string) error
	Expenses(ctx context.Context, groupID string) ([]Expense, error)

	AddSettlement(ctx context.Context, s *Settlement) error
	Settlements(ctx context.Context, groupID string) ([]Settlement, error)
}
