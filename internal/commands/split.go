package commands

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/susu3304/billdividr/internal/group"
	"github.com/susu3304/billdividr/internal/money"
	"github.com/susu3304/billdividr/internal/settle"
)

const DefaultReminderMinutes = 24 * 60

// Responder is the part of *discordgo.Session used to answer interactions.
type Responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

type ReminderStore interface {
	UpsertReminder(ctx context.Context, groupID string, enabled bool, intervalMinutes int, nextDueAt *time.Time) error
}

// Split handles the /split command. Every subcommand except start works on
// the group bound to the invoking channel.
type Split struct {
	groups     *group.Service
	reminders  ReminderStore
	webBaseURL string
	log        *zap.Logger
	now        func() time.Time
}

func NewSplit(svc *group.Service, reminders ReminderStore, webBaseURL string, logger *zap.Logger) *Split {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Split{
		groups:     svc,
		reminders:  reminders,
		webBaseURL: strings.TrimRight(webBaseURL, "/"),
		log:        logger,
		now:        time.Now,
	}
}

func (h *Split) Handle(s Responder, i *discordgo.InteractionCreate) {
	content := h.run(context.Background(), i)
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
	if err != nil {
		h.log.Warn("failed to respond to interaction", zap.String("channel_id", i.ChannelID), zap.Error(err))
	}
}

func (h *Split) run(ctx context.Context, i *discordgo.InteractionCreate) string {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return "No subcommand given."
	}
	sub := data.Options[0]
	caller := invoker(i)
	if caller == nil {
		return "This command only works in a server channel."
	}

	if sub.Name == "start" {
		return h.start(ctx, i, sub, caller)
	}

	g, err := h.groups.GroupByChannel(ctx, i.ChannelID)
	if errors.Is(err, group.ErrNotFound) {
		return "There is no group in this channel yet. Use `/split start` first."
	}
	if err != nil {
		return h.failure(err, i.ChannelID, sub.Name)
	}

	var msg string
	switch sub.Name {
	case "join":
		msg, err = h.join(ctx, g, caller.ID, displayName(i.Member, caller))
	case "member":
		uid := optionUserID(sub.Options, "user")
		if uid == "" {
			return "No user given."
		}
		msg, err = h.join(ctx, g, uid, resolvedName(data, uid))
	case "pay":
		msg, err = h.pay(ctx, g, i, sub, caller)
	case "settle":
		msg, err = h.settle(ctx, g)
	case "status":
		msg, err = h.status(ctx, g)
	case "paid":
		msg, err = h.paid(ctx, g, i, sub, caller)
	case "leave":
		msg, err = h.leave(ctx, g, caller.ID)
	case "remind":
		msg, err = h.remind(ctx, g, sub)
	case "web":
		msg = h.web(g)
	default:
		msg = "Unknown subcommand."
	}
	if err != nil {
		return h.failure(err, i.ChannelID, sub.Name)
	}
	return msg
}

func (h *Split) start(ctx context.Context, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption, caller *discordgo.User) string {
	name := "Shared expenses"
	if v := getStringOption(sub.Options, "name"); v != nil && strings.TrimSpace(*v) != "" {
		name = *v
	}
	g, err := h.groups.CreateGroup(ctx, caller.ID, name, "", i.ChannelID)
	if errors.Is(err, group.ErrChannelInUse) {
		return "This channel already has a group."
	}
	if err != nil {
		return h.failure(err, i.ChannelID, "start")
	}
	if _, _, err := h.groups.EnsureDiscordMember(ctx, g.ID, caller.ID, displayName(i.Member, caller)); err != nil {
		return h.failure(err, i.ChannelID, "start")
	}
	return fmt.Sprintf("Started **%s** in this channel. Others can `/split join`.", g.Name)
}

func (h *Split) join(ctx context.Context, g *group.Group, userID, name string) (string, error) {
	_, joined, err := h.groups.EnsureDiscordMember(ctx, g.ID, userID, name)
	if err != nil {
		return "", err
	}
	if !joined {
		return fmt.Sprintf("<@%s> is already a member.", userID), nil
	}
	return fmt.Sprintf("Added <@%s> to **%s**.", userID, g.Name), nil
}

func (h *Split) pay(ctx context.Context, g *group.Group, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption, caller *discordgo.User) (string, error) {
	amountOpt := getStringOption(sub.Options, "amount")
	if amountOpt == nil {
		return "An amount is required.", nil
	}
	amount, err := money.Parse(*amountOpt)
	if err != nil {
		return fmt.Sprintf("Could not read amount %q.", *amountOpt), nil
	}

	payer, _, err := h.groups.EnsureDiscordMember(ctx, g.ID, caller.ID, displayName(i.Member, caller))
	if err != nil {
		return "", err
	}

	var involved []string
	if usersOpt := getStringOption(sub.Options, "users"); usersOpt != nil && strings.TrimSpace(*usersOpt) != "" {
		ids := parseMentionIDs(*usersOpt)
		if len(ids) == 0 {
			return "Could not recognise any user mentions.", nil
		}
		data := i.ApplicationCommandData()
		for _, uid := range ids {
			m, _, err := h.groups.EnsureDiscordMember(ctx, g.ID, uid, resolvedName(data, uid))
			if err != nil {
				return "", err
			}
			involved = append(involved, m.ID)
		}
	} else {
		members, err := h.groups.Members(ctx, g.ID)
		if err != nil {
			return "", err
		}
		for _, m := range members {
			if m.Active {
				involved = append(involved, m.ID)
			}
		}
	}

	memo := ""
	if v := getStringOption(sub.Options, "memo"); v != nil {
		memo = *v
	}
	e, err := h.groups.AddExpense(ctx, g.ID, group.ExpenseInput{
		Description:       memo,
		Amount:            amount,
		PayerID:           payer.ID,
		InvolvedMemberIDs: involved,
	})
	if err != nil {
		return "", err
	}

	msg := fmt.Sprintf("Recorded %s paid by %s, split %d ways (%s each).",
		money.Format(e.Amount), payer.Name, len(e.InvolvedMemberIDs),
		money.Format(e.Amount/float64(len(e.InvolvedMemberIDs))))
	if e.Description != "" {
		msg += "\nMemo: " + e.Description
	}
	return msg, nil
}

func (h *Split) settle(ctx context.Context, g *group.Group) (string, error) {
	sum, err := h.groups.Summary(ctx, g.ID)
	if err != nil {
		return "", err
	}
	return RenderPending(sum.Pending), nil
}

func (h *Split) status(ctx context.Context, g *group.Group) (string, error) {
	sum, err := h.groups.Summary(ctx, g.ID)
	if err != nil {
		return "", err
	}
	return RenderStatus(g, sum), nil
}

func (h *Split) paid(ctx context.Context, g *group.Group, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption, caller *discordgo.User) (string, error) {
	uid := optionUserID(sub.Options, "user")
	if uid == "" {
		return "Tell me who you paid.", nil
	}
	payer, err := h.groups.MemberByDiscordUser(ctx, g.ID, caller.ID)
	if errors.Is(err, group.ErrNotFound) {
		return "You are not a member of this group.", nil
	}
	if err != nil {
		return "", err
	}
	receiver, err := h.groups.MemberByDiscordUser(ctx, g.ID, uid)
	if errors.Is(err, group.ErrNotFound) {
		return fmt.Sprintf("<@%s> is not a member of this group.", uid), nil
	}
	if err != nil {
		return "", err
	}

	var amount float64
	if v := getStringOption(sub.Options, "amount"); v != nil && strings.TrimSpace(*v) != "" {
		amount, err = money.Parse(*v)
		if err != nil {
			return fmt.Sprintf("Could not read amount %q.", *v), nil
		}
	} else {
		sum, err := h.groups.Summary(ctx, g.ID)
		if err != nil {
			return "", err
		}
		amount = sum.Owes(payer.ID, receiver.ID)
		if amount < settle.Epsilon {
			return fmt.Sprintf("You do not owe %s anything.", receiver.Name), nil
		}
	}

	if _, err := h.groups.RecordSettlement(ctx, g.ID, payer.ID, receiver.ID, amount, caller.ID); err != nil {
		return "", err
	}
	return fmt.Sprintf("Recorded %s paid %s %s.", payer.Name, receiver.Name, money.Format(amount)), nil
}

func (h *Split) leave(ctx context.Context, g *group.Group, userID string) (string, error) {
	m, err := h.groups.MemberByDiscordUser(ctx, g.ID, userID)
	if errors.Is(err, group.ErrNotFound) || (err == nil && !m.Active) {
		return "You are not a member of this group.", nil
	}
	if err != nil {
		return "", err
	}
	if err := h.groups.ArchiveMember(ctx, g.ID, m.ID); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s left **%s**.", m.Name, g.Name), nil
}

func (h *Split) remind(ctx context.Context, g *group.Group, sub *discordgo.ApplicationCommandInteractionDataOption) (string, error) {
	if h.reminders == nil {
		return "Reminders are not available.", nil
	}
	enabled := false
	if v := getBoolOption(sub.Options, "enabled"); v != nil {
		enabled = *v
	}
	interval := DefaultReminderMinutes
	if v := getIntOption(sub.Options, "interval"); v != nil && *v > 0 {
		interval = int(*v)
	}

	var next *time.Time
	if enabled {
		t := h.now().Add(time.Duration(interval) * time.Minute)
		next = &t
	}
	if err := h.reminders.UpsertReminder(ctx, g.ID, enabled, interval, next); err != nil {
		return "", err
	}
	if !enabled {
		return "Reminders are off.", nil
	}
	return fmt.Sprintf("Reminders are on, every %d minutes while payments are unsettled.", interval), nil
}

func (h *Split) web(g *group.Group) string {
	if h.webBaseURL == "" {
		return "The web interface is not configured."
	}
	return fmt.Sprintf("Web: %s/groups/%s", h.webBaseURL, g.ID)
}

// failure logs unexpected errors and turns known ones into user text.
func (h *Split) failure(err error, channelID, sub string) string {
	switch {
	case errors.Is(err, group.ErrOutstandingBalance):
		return "Settle your balance before leaving."
	case errors.Is(err, group.ErrSamePerson):
		return "You cannot pay yourself."
	case errors.Is(err, group.ErrInvalidAmount):
		return "The amount must be positive."
	case errors.Is(err, group.ErrNoParticipants):
		return "Nobody to split with. Add members first."
	case errors.Is(err, group.ErrNameRequired):
		return "A name is required."
	case errors.Is(err, group.ErrNotFound):
		return "Not found."
	}
	h.log.Error("split command failed",
		zap.String("channel_id", channelID),
		zap.String("subcommand", sub),
		zap.Error(err),
	)
	return "Something went wrong. Please try again."
}

func invoker(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func displayName(member *discordgo.Member, user *discordgo.User) string {
	if member != nil && member.Nick != "" {
		return member.Nick
	}
	return user.Username
}

// resolvedName looks up a mentioned user's display name in the interaction
// payload, falling back to the raw id.
func resolvedName(data discordgo.ApplicationCommandInteractionData, userID string) string {
	if data.Resolved != nil {
		if m, ok := data.Resolved.Members[userID]; ok && m != nil && m.Nick != "" {
			return m.Nick
		}
		if u, ok := data.Resolved.Users[userID]; ok && u != nil && u.Username != "" {
			return u.Username
		}
	}
	return userID
}

func optionUserID(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, o := range opts {
		if o.Name != name {
			continue
		}
		if id, ok := o.Value.(string); ok {
			return id
		}
	}
	return ""
}

func getStringOption(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) *string {
	for _, o := range opts {
		if o.Name == name {
			v := o.StringValue()
			return &v
		}
	}
	return nil
}

func getIntOption(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) *int64 {
	for _, o := range opts {
		if o.Name == name {
			v := o.IntValue()
			return &v
		}
	}
	return nil
}

func getBoolOption(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) *bool {
	for _, o := range opts {
		if o.Name == name {
			v := o.BoolValue()
			return &v
		}
	}
	return nil
}

var mentionPattern = regexp.MustCompile(`<@!?([0-9]+)>`)

// parseMentionIDs supports <@123>, <@!123>, and raw IDs separated by spaces.
func parseMentionIDs(text string) []string {
	var ids []string
	for _, m := range mentionPattern.FindAllStringSubmatch(text, -1) {
		ids = append(ids, m[1])
	}
	for _, tok := range strings.Fields(text) {
		if allDigits(tok) {
			ids = append(ids, tok)
		}
	}
	return unique(ids)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
