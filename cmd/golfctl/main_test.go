package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/stitts-dev/golf-prize-engine/internal/golf"
)

func TestParsePayouts(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{
			name: "document",
			data: "tournament: masters-2025\npayouts:\n  - position: 1\n    amount: 1656000\n  - position: 2\n    amount: 1002800\n",
		},
		{
			name: "bare list",
			data: "- position: 1\n  amount: 1656000\n- position: 2\n  amount: 1002800\n",
		},
		{
			name: "json",
			data: `{"payouts": [{"position": 1, "amount": 1656000}, {"position": 2, "amount": 1002800, "percentage": 18.2}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := parsePayouts([]byte(tt.data))
			require.NoError(t, err)
			require.Len(t, entries, 2)
			assert.Equal(t, golf.PayoutEntry{Position: 1, Amount: 1656000}, entries[0])
			assert.Equal(t, int64(1002800), entries[1].Amount)
		})
	}
}

func TestParsePayouts_Rejects(t *testing.T) {
	_, err := parsePayouts([]byte(""))
	assert.Error(t, err)

	_, err = parsePayouts([]byte("just a string"))
	assert.Error(t, err)

	_, err = parsePayouts([]byte("payouts: [1, 2"))
	assert.Error(t, err)
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.Run(append([]string{"golfctl"}, args...))
	return out.String(), err
}

func TestValidatePayoutsCommand(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "payouts.yaml")
	require.NoError(t, os.WriteFile(valid, []byte("payouts:\n  - {position: 1, amount: 600}\n  - {position: 2, amount: 400}\n"), 0o600))

	out, err := runApp(t, "validate-payouts", valid)
	require.NoError(t, err)
	assert.Contains(t, out, "PURSE")
	assert.Contains(t, out, "1000")

	gap := filepath.Join(dir, "gap.yaml")
	require.NoError(t, os.WriteFile(gap, []byte("payouts:\n  - {position: 1, amount: 600}\n  - {position: 3, amount: 400}\n"), 0o600))

	_, err = runApp(t, "validate-payouts", gap)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gap between positions 1 and 3")

	_, err = runApp(t, "validate-payouts")
	assert.Error(t, err)
}
