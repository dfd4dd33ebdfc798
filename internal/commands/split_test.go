package commands

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/susu3304/billdividr/internal/group"
)

type recordedReminder struct {
	enabled  bool
	interval int
	next     *time.Time
}

type fakeReminders map[string]recordedReminder

func (f fakeReminders) UpsertReminder(ctx context.Context, groupID string, enabled bool, intervalMinutes int, nextDueAt *time.Time) error {
	f[groupID] = recordedReminder{enabled: enabled, interval: intervalMinutes, next: nextDueAt}
	return nil
}

type fakeResponder struct {
	last string
}

func (f *fakeResponder) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	f.last = resp.Data.Content
	return nil
}

func str(name, v string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionString, Value: v}
}

func user(name, id string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionUser, Value: id}
}

type splitHarness struct {
	t         *testing.T
	svc       *group.Service
	reminders fakeReminders
	split     *Split
	channel   string
}

func newHarness(t *testing.T) *splitHarness {
	svc := group.NewService(group.NewMemoryStore(), nil)
	reminders := fakeReminders{}
	h := NewSplit(svc, reminders, "https://split.example.com/", nil)
	h.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return &splitHarness{t: t, svc: svc, reminders: reminders, split: h, channel: "chan-1"}
}

// as runs a subcommand as the given Discord user and returns the reply.
func (h *splitHarness) as(userID, username, sub string, opts ...*discordgo.ApplicationCommandInteractionDataOption) string {
	h.t.Helper()
	i := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionApplicationCommand,
		ChannelID: h.channel,
		GuildID:   "guild-1",
		Member:    &discordgo.Member{User: &discordgo.User{ID: userID, Username: username}},
		Data: discordgo.ApplicationCommandInteractionData{
			Name: SplitCommand,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{{
				Name:    sub,
				Type:    discordgo.ApplicationCommandOptionSubCommand,
				Options: opts,
			}},
			Resolved: &discordgo.ApplicationCommandInteractionDataResolved{
				Users: map[string]*discordgo.User{
					"300": {ID: "300", Username: "carol"},
				},
			},
		},
	}}
	r := &fakeResponder{}
	h.split.Handle(r, i)
	return r.last
}

func (h *splitHarness) group() *group.Group {
	h.t.Helper()
	g, err := h.svc.GroupByChannel(context.Background(), h.channel)
	require.NoError(h.t, err)
	return g
}

func TestSplitRequiresGroup(t *testing.T) {
	h := newHarness(t)
	assert.Contains(t, h.as("100", "alice", "status"), "/split start")
}

func TestSplitFlow(t *testing.T) {
	h := newHarness(t)

	assert.Contains(t, h.as("100", "alice", "start", str("name", "Trip")), "Started **Trip**")
	assert.Equal(t, "This channel already has a group.", h.as("200", "bob", "start"))

	assert.Contains(t, h.as("200", "bob", "join"), "Added <@200>")
	assert.Contains(t, h.as("200", "bob", "join"), "already a member")
	assert.Contains(t, h.as("100", "alice", "member", user("user", "300")), "Added <@300>")

	reply := h.as("100", "alice", "pay", str("amount", "30"), str("memo", "dinner"))
	assert.Contains(t, reply, "split 3 ways (10.00 each)")
	assert.Contains(t, reply, "Memo: dinner")

	reply = h.as("100", "alice", "settle")
	assert.Contains(t, reply, "bob → alice: 10.00")
	assert.Contains(t, reply, "carol → alice: 10.00")

	assert.Equal(t, "Settle your balance before leaving.", h.as("200", "bob", "leave"))

	assert.Equal(t, "Recorded bob paid alice 10.00.", h.as("200", "bob", "paid", user("user", "100")))
	assert.Equal(t, "You do not owe alice anything.", h.as("200", "bob", "paid", user("user", "100")))
	assert.Equal(t, "Recorded carol paid alice 4.50.", h.as("300", "carol", "paid", user("user", "100"), str("amount", "4.50")))

	status := h.as("100", "alice", "status")
	assert.Contains(t, status, "**Trip** total spent: 30.00")
	assert.Contains(t, status, "alice: +5.50")
	assert.Contains(t, status, "carol: -5.50")
	assert.Contains(t, status, "carol → alice: 5.50")
	assert.Contains(t, status, "bob paid alice 10.00")

	assert.Contains(t, h.as("200", "bob", "leave"), "bob left **Trip**")
	assert.Equal(t, "You are not a member of this group.", h.as("200", "bob", "leave"))
}

func TestSplitPayWithUsers(t *testing.T) {
	h := newHarness(t)
	h.as("100", "alice", "start")
	h.as("200", "bob", "join")

	reply := h.as("100", "alice", "pay", str("amount", "$1,200"), str("users", "<@300> <@!100>"))
	assert.Contains(t, reply, "split 2 ways (600.00 each)")

	members, err := h.svc.Members(context.Background(), h.group().ID)
	require.NoError(t, err)
	ids := make(map[string]string, len(members))
	for _, m := range members {
		ids[m.Name] = m.ID
	}
	assert.Len(t, ids, 3)
	assert.Contains(t, ids, "carol")

	sum, err := h.svc.Summary(context.Background(), h.group().ID)
	require.NoError(t, err)
	assert.InDelta(t, 600, sum.Owes(ids["carol"], ids["alice"]), 1e-9)
	assert.Zero(t, sum.Owes(ids["bob"], ids["alice"]))
}

func TestSplitPaidWithSharedNames(t *testing.T) {
	h := newHarness(t)
	h.as("100", "alice", "start")
	h.as("200", "sam", "join")
	h.as("201", "sam", "join")
	h.as("100", "alice", "pay", str("amount", "30"))

	assert.Equal(t, "Recorded sam paid alice 10.00.", h.as("200", "sam", "paid", user("user", "100")))

	ctx := context.Background()
	g := h.group()
	first, err := h.svc.MemberByDiscordUser(ctx, g.ID, "200")
	require.NoError(t, err)
	second, err := h.svc.MemberByDiscordUser(ctx, g.ID, "201")
	require.NoError(t, err)
	alice, err := h.svc.MemberByDiscordUser(ctx, g.ID, "100")
	require.NoError(t, err)

	sum, err := h.svc.Summary(ctx, g.ID)
	require.NoError(t, err)
	balances := make(map[string]float64)
	for _, b := range sum.Balances {
		balances[b.MemberID] = b.Balance
	}
	assert.InDelta(t, 0, balances[first.ID], 1e-9)
	assert.InDelta(t, -10, balances[second.ID], 1e-9)
	assert.InDelta(t, 10, balances[alice.ID], 1e-9)

	assert.Equal(t, "You do not owe alice anything.", h.as("200", "sam", "paid", user("user", "100")))
	assert.Equal(t, "Recorded sam paid alice 10.00.", h.as("201", "sam", "paid", user("user", "100")))
}

func TestSplitRejectsBadInput(t *testing.T) {
	h := newHarness(t)
	h.as("100", "alice", "start")

	tests := []struct {
		name string
		sub  string
		opts []*discordgo.ApplicationCommandInteractionDataOption
		want string
	}{
		{name: "negative amount", sub: "pay", opts: []*discordgo.ApplicationCommandInteractionDataOption{str("amount", "-5")}, want: `Could not read amount "-5".`},
		{name: "text amount", sub: "pay", opts: []*discordgo.ApplicationCommandInteractionDataOption{str("amount", "lots")}, want: `Could not read amount "lots".`},
		{name: "no mentions", sub: "pay", opts: []*discordgo.ApplicationCommandInteractionDataOption{str("amount", "5"), str("users", "everyone")}, want: "Could not recognise any user mentions."},
		{name: "pay yourself", sub: "paid", opts: []*discordgo.ApplicationCommandInteractionDataOption{user("user", "100"), str("amount", "5")}, want: "You cannot pay yourself."},
		{name: "pay a stranger", sub: "paid", opts: []*discordgo.ApplicationCommandInteractionDataOption{user("user", "999")}, want: "<@999> is not a member of this group."},
		{name: "unknown subcommand", sub: "dance", want: "Unknown subcommand."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.as("100", "alice", tt.sub, tt.opts...))
		})
	}
}

func TestSplitRemind(t *testing.T) {
	h := newHarness(t)
	h.as("100", "alice", "start")
	id := h.group().ID

	enabled := &discordgo.ApplicationCommandInteractionDataOption{Name: "enabled", Type: discordgo.ApplicationCommandOptionBoolean, Value: true}
	interval := &discordgo.ApplicationCommandInteractionDataOption{Name: "interval", Type: discordgo.ApplicationCommandOptionInteger, Value: float64(60)}

	assert.Contains(t, h.as("100", "alice", "remind", enabled, interval), "every 60 minutes")
	got := h.reminders[id]
	assert.True(t, got.enabled)
	assert.Equal(t, 60, got.interval)
	require.NotNil(t, got.next)
	assert.Equal(t, time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC), *got.next)

	assert.Contains(t, h.as("100", "alice", "remind", enabled), "every 1440 minutes")

	disabled := &discordgo.ApplicationCommandInteractionDataOption{Name: "enabled", Type: discordgo.ApplicationCommandOptionBoolean, Value: false}
	assert.Equal(t, "Reminders are off.", h.as("100", "alice", "remind", disabled))
	assert.False(t, h.reminders[id].enabled)
	assert.Nil(t, h.reminders[id].next)
}

func TestSplitWeb(t *testing.T) {
	h := newHarness(t)
	h.as("100", "alice", "start")
	assert.Equal(t, "Web: https://split.example.com/groups/"+h.group().ID, h.as("100", "alice", "web"))
}

func TestParseMentionIDs(t *testing.T) {
	assert.Equal(t, []string{"1", "2", "3"}, parseMentionIDs("<@1> <@!2> 3 <@1>"))
	assert.Empty(t, parseMentionIDs("nobody here"))
}
