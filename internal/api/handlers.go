package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/susu3304/billdividr/internal/group"
	"github.com/susu3304/billdividr/internal/settle"
)

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type settleRequest struct {
	Expenses    []settle.Expense    `json:"expenses"`
	Members     []settle.Member     `json:"members"`
	Settlements []settle.Settlement `json:"settlements"`
}

// handleSettle runs the engine over the request body without touching storage.
func (a *API) handleSettle(w http.ResponseWriter, r *http.Request) {
	var req settleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, settle.Calculate(req.Expenses, req.Members, req.Settlements))
}

// ownedGroup loads the group from the route and checks the caller owns it.
// It writes the error response itself and returns nil on failure.
func (a *API) ownedGroup(w http.ResponseWriter, r *http.Request) *group.Group {
	claims := claimsFrom(r)
	g, err := a.groups.Group(r.Context(), mux.Vars(r)["group_id"])
	if err != nil {
		a.writeError(w, r, err)
		return nil
	}
	if claims == nil || g.OwnerID != claims.UserID {
		writeMessage(w, http.StatusForbidden, "forbidden")
		return nil
	}
	return g
}

// Groups

func (a *API) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := a.groups.Groups(r.Context(), claimsFrom(r).UserID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if groups == nil {
		groups = []group.Group{}
	}
	writeJSON(w, http.StatusOK, groups)
}

type groupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (a *API) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	g, err := a.groups.CreateGroup(r.Context(), claimsFrom(r).UserID, req.Name, req.Description, "")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (a *API) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	g := a.ownedGroup(w, r)
	if g == nil {
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (a *API) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	g := a.ownedGroup(w, r)
	if g == nil {
		return
	}
	var req groupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated, err := a.groups.UpdateGroup(r.Context(), g.ID, req.Name, req.Description)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	g := a.ownedGroup(w, r)
	if g == nil {
		return
	}
	if err := a.groups.DeleteGroup(r.Context(), g.ID); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "group deleted")
}

// Members

func (a *API) handleListMembers(w http.ResponseWriter, r *http.Request) {
	g := a.ownedGroup(w, r)
	if g == nil {
		return
	}
	members, err := a.groups.Members(r.Context(), g.ID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if members == nil {
		members = []group.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (a *API) handleAddMember(w http.ResponseWriter, r *http.Request) {
	g := a.ownedGroup(w, r)
	if g == nil {
		return
	}
	var req struct {
		Name          string `json:"name"`
		DiscordUserID string `json:"discord_user_id"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	m, err := a.groups.AddMember(r.Context(), g.ID, req.Name, req.DiscordUserID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (a *API) handleArchiveMember(w http.ResponseWriter, r *http.Request) {
	g := a.ownedGroup(w, r)
	if g == nil {
		return
	}
	if err := a.groups.ArchiveMember(r.Context(), g.ID, mux.Vars(r)["member_id"]); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "member archived")
}

func (a *API) handleJoinExpenses(w http.ResponseWriter, r *http.Request) {
	g := a.ownedGroup(w, r)
	if g == nil {
		return
	}
	var req struct {
		ExpenseIDs []string `json:"expense_ids"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	n, err := a.groups.JoinExpenses(r.Context(), g.ID, mux.Vars(r)["member_id"], req.ExpenseIDs)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": n})
}

// Expenses

func (a *API) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	g := a.ownedGroup(w, r)
	if g == nil {
		return
	}
	expenses, err := a.groups.Expenses(r.Context(), g.ID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if expenses == nil {
		expenses = []group.Expense{}
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (a *API) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	g := a.ownedGroup(w, r)
	if g == nil {
		return
	}
	var in group.ExpenseInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	e, err := a.groups.AddExpense(r.Context(), g.ID, in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (a *API) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	g := a.ownedGroup(w, r)
	if g == nil {
		return
	}
	var in group.ExpenseInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	e, err := a.groups.UpdateExpense(r.Context(), g.ID, mux.Vars(r)["expense_id"], in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (a *API) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	g := a.ownedGroup(w, r)
	if g == nil {
		return
	}
	if err := a.groups.DeleteExpense(r.Context(), g.ID, mux.Vars(r)["expense_id"]); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "expense deleted")
}

// Settlements

func (a *API) handleListSettlements(w http.ResponseWriter, r *http.Request) {
	g := a.ownedGroup(w, r)
	if g == nil {
		return
	}
	settlements, err := a.groups.Settlements(r.Context(), g.ID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if settlements == nil {
		settlements = []group.Settlement{}
	}
	writeJSON(w, http.StatusOK, settlements)
}

func (a *API) handleRecordSettlement(w http.ResponseWriter, r *http.Request) {
	g := a.ownedGroup(w, r)
	if g == nil {
		return
	}
	var req struct {
		PayerID    string  `json:"payer_id"`
		ReceiverID string  `json:"receiver_id"`
		Amount     float64 `json:"amount"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	st, err := a.groups.RecordSettlement(r.Context(), g.ID, req.PayerID, req.ReceiverID, req.Amount, claimsFrom(r).UserID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (a *API) handleSummary(w http.ResponseWriter, r *http.Request) {
	g := a.ownedGroup(w, r)
	if g == nil {
		return
	}
	sum, err := a.groups.Summary(r.Context(), g.ID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
