package commands

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/susu3304/billdividr/internal/group"
	"github.com/susu3304/billdividr/internal/money"
	"github.com/susu3304/billdividr/internal/settle"
)

// Discord rejects messages longer than this.
const maxMessageLength = 2000

// RenderPending lists the payments that would settle the group.
func RenderPending(pending []settle.Transaction) string {
	if len(pending) == 0 {
		return "Everyone is settled up."
	}
	var b strings.Builder
	b.WriteString("Payments to settle up:\n")
	for _, t := range pending {
		fmt.Fprintf(&b, "・%s → %s: %s\n", t.From, t.To, money.Format(t.Amount))
	}
	return truncate(strings.TrimRight(b.String(), "\n"))
}

// RenderStatus shows totals, per-member balances, pending payments and the
// most recent recorded payments.
func RenderStatus(g *group.Group, sum *group.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** total spent: %s\n", g.Name, money.Format(sum.TotalSpent))

	if len(sum.Balances) == 0 {
		b.WriteString("No members yet.\n")
	} else {
		b.WriteString("\nBalances:\n")
		for _, mb := range sum.Balances {
			state := ""
			if !mb.Active {
				state = " (left)"
			}
			fmt.Fprintf(&b, "・%s%s: %s\n", mb.Name, state, signed(mb.Balance))
		}
	}

	b.WriteString("\n")
	b.WriteString(RenderPending(sum.Pending))
	b.WriteString("\n")

	if n := len(sum.History); n > 0 {
		const recent = 5
		start := 0
		if n > recent {
			start = n - recent
		}
		b.WriteString("\nRecent payments:\n")
		for _, p := range sum.History[start:] {
			fmt.Fprintf(&b, "・%s paid %s %s\n", p.From, p.To, money.Format(p.Amount))
		}
	}
	return truncate(strings.TrimRight(b.String(), "\n"))
}

// RenderReminder is the automatic post for a group with unsettled payments.
func RenderReminder(g *group.Group, pending []settle.Transaction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reminder: **%s** still has unsettled payments.\n", g.Name)
	for _, t := range pending {
		fmt.Fprintf(&b, "・%s → %s: %s\n", t.From, t.To, money.Format(t.Amount))
	}
	b.WriteString("\nUse `/split paid` once you have paid.\n※This message was posted automatically")
	return truncate(b.String())
}

func signed(v float64) string {
	if v > 0 {
		return "+" + money.Format(v)
	}
	return money.Format(v)
}

func truncate(s string) string {
	if len(s) <= maxMessageLength {
		return s
	}
	const suffix = "\n…"
	cut := maxMessageLength - len(suffix)
	// Back up to a rune boundary.
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + suffix
}
