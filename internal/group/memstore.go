package group

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is a Store kept in process memory. Data is lost on exit.
type MemoryStore struct {
	mu          sync.Mutex
	groups      map[string]*Group
	members     map[string][]Member
	expenses    map[string][]Expense
	settlements map[string][]Settlement
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		groups:      make(map[string]*Group),
		members:     make(map[string][]Member),
		expenses:    make(map[string][]Expense),
		settlements: make(map[string][]Settlement),
	}
}

func (s *MemoryStore) CreateGroup(ctx context.Context, g *Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.ChannelID != "" {
		for _, other := range s.groups {
			if other.ChannelID == g.ChannelID {
				return ErrChannelInUse
			}
		}
	}
	cp := *g
	s.groups[g.ID] = &cp
	return nil
}

func (s *MemoryStore) GetGroup(ctx context.Context, id string) (*Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (s *MemoryStore) GroupByChannel(ctx context.Context, channelID string) (*Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.groups {
		if channelID != "" && g.ChannelID == channelID {
			cp := *g
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListGroups(ctx context.Context, ownerID string) ([]Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Group
	for _, g := range s.groups {
		if ownerID == "" || g.OwnerID == ownerID {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) UpdateGroup(ctx context.Context, g *Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.groups[g.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Name = g.Name
	cur.Description = g.Description
	return nil
}

func (s *MemoryStore) DeleteGroup(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[id]; !ok {
		return ErrNotFound
	}
	delete(s.groups, id)
	delete(s.members, id)
	delete(s.expenses, id)
	delete(s.settlements, id)
	return nil
}

func (s *MemoryStore) AddMember(ctx context.Context, m *Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[m.GroupID]; !ok {
		return ErrNotFound
	}
	s.members[m.GroupID] = append(s.members[m.GroupID], *m)
	return nil
}

func (s *MemoryStore) Members(ctx context.Context, groupID string) ([]Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Member(nil), s.members[groupID]...), nil
}

func (s *MemoryStore) SetMemberActive(ctx context.Context, groupID, memberID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms := s.members[groupID]
	for i := range ms {
		if ms[i].ID == memberID {
			ms[i].Active = active
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) AddExpense(ctx context.Context, e *Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[e.GroupID]; !ok {
		return ErrNotFound
	}
	s.expenses[e.GroupID] = append(s.expenses[e.GroupID], cloneExpense(*e))
	return nil
}

func (s *MemoryStore) UpdateExpense(ctx context.Context, e *Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	es := s.expenses[e.GroupID]
	for i := range es {
		if es[i].ID == e.ID {
			e.CreatedAt = es[i].CreatedAt
			es[i] = cloneExpense(*e)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) UpdateExpenses(ctx context.Context, updates []Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := make([]int, len(updates))
	for n, u := range updates {
		idx[n] = -1
		for i, e := range s.expenses[u.GroupID] {
			if e.ID == u.ID {
				idx[n] = i
				break
			}
		}
		if idx[n] < 0 {
			return ErrNotFound
		}
	}
	for n, u := range updates {
		es := s.expenses[u.GroupID]
		u.CreatedAt = es[idx[n]].CreatedAt
		es[idx[n]] = cloneExpense(u)
	}
	return nil
}

func (s *MemoryStore) DeleteExpense(ctx context.Context, groupID, expenseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	es := s.expenses[groupID]
	for i := range es {
		if es[i].ID == expenseID {
			s.expenses[groupID] = append(es[:i:i], es[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) Expenses(ctx context.Context, groupID string) ([]Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Expense, 0, len(s.expenses[groupID]))
	for _, e := range s.expenses[groupID] {
		out = append(out, cloneExpense(e))
	}
	return out, nil
}

func (s *MemoryStore) AddSettlement(ctx context.Context, st *Settlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[st.GroupID]; !ok {
		return ErrNotFound
	}
	s.settlements[st.GroupID] = append(s.settlements[st.GroupID], *st)
	return nil
}

func (s *MemoryStore) Settlements(ctx context.Context, groupID string) ([]Settlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Settlement(nil), s.settlements[groupID]...), nil
}

func cloneExpense(e Expense) Expense {
	e.InvolvedMemberIDs = append([]string(nil), e.InvolvedMemberIDs...)
	return e
}
