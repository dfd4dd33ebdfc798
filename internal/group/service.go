// Package group manages groups, their members, expenses and recorded
// settlements, and builds the settle-up summary from the settle engine.
package group

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/susu3304/billdividr/internal/settle"
)

type Service struct {
	store Store
	log   *zap.Logger
	now   func() time.Time
}

func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, log: logger, now: time.Now}
}

func (s *Service) CreateGroup(ctx context.Context, ownerID, name, description, channelID string) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	g := &Group{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(description),
		OwnerID:     ownerID,
		ChannelID:   channelID,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.CreateGroup(ctx, g); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}
	s.log.Info("group created", zap.String("group_id", g.ID), zap.String("owner_id", ownerID))
	return g, nil
}

func (s *Service) Group(ctx context.Context, id string) (*Group, error) {
	return s.store.GetGroup(ctx, id)
}

func (s *Service) GroupByChannel(ctx context.Context, channelID string) (*Group, error) {
	return s.store.GroupByChannel(ctx, channelID)
}

func (s *Service) Groups(ctx context.Context, ownerID string) ([]Group, error) {
	return s.store.ListGroups(ctx, ownerID)
}

func (s *Service) UpdateGroup(ctx context.Context, id, name, description string) (*Group, error) {
	g, err := s.store.GetGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	g.Name = name
	g.Description = strings.TrimSpace(description)
	if err := s.store.UpdateGroup(ctx, g); err != nil {
		return nil, fmt.Errorf("update group: %w", err)
	}
	return g, nil
}

// DeleteGroup removes the group with all of its members, expenses and
// settlements.
func (s *Service) DeleteGroup(ctx context.Context, id string) error {
	if err := s.store.DeleteGroup(ctx, id); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	s.log.Info("group deleted", zap.String("group_id", id))
	return nil
}

func (s *Service) AddMember(ctx context.Context, groupID, name, discordUserID string) (*Member, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	m := &Member{
		ID:            uuid.NewString(),
		GroupID:       groupID,
		Name:          name,
		DiscordUserID: discordUserID,
		Active:        true,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.store.AddMember(ctx, m); err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}
	return m, nil
}

func (s *Service) Members(ctx context.Context, groupID string) ([]Member, error) {
	return s.store.Members(ctx, groupID)
}

// MemberByDiscordUser returns the member linked to a Discord user.
func (s *Service) MemberByDiscordUser(ctx context.Context, groupID, discordUserID string) (*Member, error) {
	members, err := s.store.Members(ctx, groupID)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		if m.DiscordUserID == discordUserID {
			m := m
			return &m, nil
		}
	}
	return nil, ErrNotFound
}

// EnsureDiscordMember returns the member linked to discordUserID, adding it
// when missing. joined reports whether the member was added or reactivated.
func (s *Service) EnsureDiscordMember(ctx context.Context, groupID, discordUserID, name string) (m *Member, joined bool, err error) {
	m, err = s.MemberByDiscordUser(ctx, groupID, discordUserID)
	switch {
	case err == nil:
		if !m.Active {
			if err := s.store.SetMemberActive(ctx, groupID, m.ID, true); err != nil {
				return nil, false, err
			}
			m.Active = true
			return m, true, nil
		}
		return m, false, nil
	case !errors.Is(err, ErrNotFound):
		return nil, false, err
	}
	if name == "" {
		name = discordUserID
	}
	m, err = s.AddMember(ctx, groupID, name, discordUserID)
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

// ArchiveMember hides a member from active lists. Members who still owe or
// are owed money cannot be archived.
func (s *Service) ArchiveMember(ctx context.Context, groupID, memberID string) error {
	snap, err := s.snapshot(ctx, groupID)
	if err != nil {
		return err
	}
	if _, ok := findMember(snap.Members, memberID); !ok {
		return ErrNotFound
	}
	expenses, members, settlements := snap.engineInput()
	balance := settle.Accumulate(expenses, members, settlements).Get(memberID)
	if math.Abs(balance) >= settle.Epsilon {
		return fmt.Errorf("%w: %.2f", ErrOutstandingBalance, balance)
	}
	if err := s.store.SetMemberActive(ctx, groupID, memberID, false); err != nil {
		return fmt.Errorf("archive member: %w", err)
	}
	s.log.Info("member archived", zap.String("group_id", groupID), zap.String("member_id", memberID))
	return nil
}

// JoinExpenses adds memberID to the participants of the given expenses.
// Expenses that already include the member are left unchanged.
func (s *Service) JoinExpenses(ctx context.Context, groupID, memberID string, expenseIDs []string) (int, error) {
	members, err := s.store.Members(ctx, groupID)
	if err != nil {
		return 0, err
	}
	if _, ok := findMember(members, memberID); !ok {
		return 0, ErrInvalidMember
	}
	expenses, err := s.store.Expenses(ctx, groupID)
	if err != nil {
		return 0, err
	}
	wanted := make(map[string]bool, len(expenseIDs))
	for _, id := range expenseIDs {
		wanted[id] = true
	}

	var changed []Expense
	for _, e := range expenses {
		if !wanted[e.ID] || contains(e.InvolvedMemberIDs, memberID) {
			continue
		}
		e.InvolvedMemberIDs = append(append([]string(nil), e.InvolvedMemberIDs...), memberID)
		e.UpdatedAt = s.now().UTC()
		changed = append(changed, e)
	}
	if len(changed) == 0 {
		return 0, nil
	}
	if err := s.store.UpdateExpenses(ctx, changed); err != nil {
		return 0, fmt.Errorf("join expenses: %w", err)
	}
	s.log.Info("member joined expenses",
		zap.String("group_id", groupID),
		zap.String("member_id", memberID),
		zap.Int("count", len(changed)),
	)
	return len(changed), nil
}

// ExpenseInput carries the editable fields of an expense.
type ExpenseInput struct {
	Description       string   `json:"description"`
	Amount            float64  `json:"amount"`
	PayerID           string   `json:"payer_id"`
	InvolvedMemberIDs []string `json:"involved_member_ids"`
}

func (s *Service) AddExpense(ctx context.Context, groupID string, in ExpenseInput) (*Expense, error) {
	involved, err := s.validateExpense(ctx, groupID, in)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	e := &Expense{
		ID:                uuid.NewString(),
		GroupID:           groupID,
		Description:       strings.TrimSpace(in.Description),
		Amount:            in.Amount,
		PayerID:           in.PayerID,
		InvolvedMemberIDs: involved,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.AddExpense(ctx, e); err != nil {
		return nil, fmt.Errorf("add expense: %w", err)
	}
	return e, nil
}

func (s *Service) UpdateExpense(ctx context.Context, groupID, expenseID string, in ExpenseInput) (*Expense, error) {
	involved, err := s.validateExpense(ctx, groupID, in)
	if err != nil {
		return nil, err
	}
	e := &Expense{
		ID:                expenseID,
		GroupID:           groupID,
		Description:       strings.TrimSpace(in.Description),
		Amount:            in.Amount,
		PayerID:           in.PayerID,
		InvolvedMemberIDs: involved,
		UpdatedAt:         s.now().UTC(),
	}
	if err := s.store.UpdateExpense(ctx, e); err != nil {
		return nil, fmt.Errorf("update expense: %w", err)
	}
	return e, nil
}

func (s *Service) DeleteExpense(ctx context.Context, groupID, expenseID string) error {
	if err := s.store.DeleteExpense(ctx, groupID, expenseID); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

func (s *Service) Expenses(ctx context.Context, groupID string) ([]Expense, error) {
	return s.store.Expenses(ctx, groupID)
}

func (s *Service) validateExpense(ctx context.Context, groupID string, in ExpenseInput) ([]string, error) {
	if !(in.Amount > 0) || math.IsInf(in.Amount, 0) {
		return nil, ErrInvalidAmount
	}
	members, err := s.store.Members(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if _, ok := findMember(members, in.PayerID); !ok {
		return nil, fmt.Errorf("%w: payer %s", ErrInvalidMember, in.PayerID)
	}
	involved := unique(in.InvolvedMemberIDs)
	if len(involved) == 0 {
		return nil, ErrNoParticipants
	}
	for _, id := range involved {
		if _, ok := findMember(members, id); !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidMember, id)
		}
	}
	return involved, nil
}

// RecordSettlement stores a payment from payerID to receiverID.
func (s *Service) RecordSettlement(ctx context.Context, groupID, payerID, receiverID string, amount float64, recordedBy string) (*Settlement, error) {
	if !(amount > 0) || math.IsInf(amount, 0) {
		return nil, ErrInvalidAmount
	}
	if payerID == receiverID {
		return nil, ErrSamePerson
	}
	members, err := s.store.Members(ctx, groupID)
	if err != nil {
		return nil, err
	}
	for _, id := range []string{payerID, receiverID} {
		if _, ok := findMember(members, id); !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidMember, id)
		}
	}
	st := &Settlement{
		ID:         uuid.NewString(),
		GroupID:    groupID,
		Amount:     amount,
		PayerID:    payerID,
		ReceiverID: receiverID,
		RecordedBy: recordedBy,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.store.AddSettlement(ctx, st); err != nil {
		return nil, fmt.Errorf("record settlement: %w", err)
	}
	s.log.Info("settlement recorded",
		zap.String("group_id", groupID),
		zap.String("payer_id", payerID),
		zap.String("receiver_id", receiverID),
		zap.Float64("amount", amount),
	)
	return st, nil
}

func (s *Service) Settlements(ctx context.Context, groupID string) ([]Settlement, error) {
	return s.store.Settlements(ctx, groupID)
}

func (s *Service) snapshot(ctx context.Context, groupID string) (*Snapshot, error) {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	members, err := s.store.Members(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	expenses, err := s.store.Expenses(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	settlements, err := s.store.Settlements(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("load settlements: %w", err)
	}
	return &Snapshot{Members: members, Expenses: expenses, Settlements: settlements}, nil
}

func findMember(members []Member, id string) (Member, bool) {
	for _, m := range members {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
