package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ledger = `{
  "members": [
    {"id": "1", "name": "Alice"},
    {"id": "2", "name": "Bob"},
    {"id": "3", "name": "Charlie"}
  ],
  "expenses": [
    {"amount": 30, "payerId": "1", "involvedMemberIds": ["1", "2", "3"]}
  ],
  "settlements": [
    {"amount": 10, "payerId": "2", "receiverId": "1"}
  ]
}`

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("APP_ENV", "development")
	t.Setenv("LOG_LEVEL", "error")
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSettleCommand(t *testing.T) {
	out, err := execute(t, ledger, "settle")
	require.NoError(t, err)
	assert.Equal(t, "Balances:\n"+
		"  Alice: 10.00\n"+
		"  Bob: 0.00\n"+
		"  Charlie: -10.00\n"+
		"Transactions:\n"+
		"  Charlie -> Alice: 10.00\n", out)
}

func TestSettleCommandCents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	require.NoError(t, os.WriteFile(path, []byte(ledger), 0o600))

	out, err := execute(t, "", "settle", "--file", path, "--cents")
	require.NoError(t, err)
	assert.Contains(t, out, "  Charlie: -1000\n")
	assert.Contains(t, out, "  Charlie -> Alice: 1000\n")
}

func TestSettleCommandJSON(t *testing.T) {
	out, err := execute(t, ledger, "settle", "--json")
	require.NoError(t, err)

	var got settleOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.InDelta(t, 10, got.Balances["1"], 1e-9)
	require.Len(t, got.Transactions, 1)
	assert.Equal(t, "Charlie", got.Transactions[0].From)
}

func TestSettleCommandSettled(t *testing.T) {
	out, err := execute(t, `{"members": [{"id": "1", "name": "Alice"}]}`, "settle")
	require.NoError(t, err)
	assert.Equal(t, "Balances:\n  Alice: 0.00\nEveryone is settled up.\n", out)
}

func TestSettleCommandErrors(t *testing.T) {
	_, err := execute(t, "{not json", "settle")
	assert.ErrorContains(t, err, "invalid ledger")

	_, err = execute(t, "", "settle", "--file", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
