package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mintx/internal/domain/fee"
	"mintx/internal/infra/solana"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	printJSON = false
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestFeeCommand(t *testing.T) {
	out, err := run(t, "fee", "--revoke-mint", "--revoke-freeze")
	require.NoError(t, err)
	assert.Contains(t, out, "total:                    0.022 SOL")

	out, err = run(t, "fee", "--json")
	require.NoError(t, err)
	var q fee.Quote
	require.NoError(t, json.Unmarshal([]byte(out), &q))
	assert.Equal(t, fee.BaseFee, q.Total)
}

func TestKeygenCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signer.json")

	out, err := run(t, "keygen", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, "address: ")

	acc, err := solana.LoadKeypair(t.Context(), solana.KeySource{Path: path})
	require.NoError(t, err)
	assert.Contains(t, out, acc.PublicKey.ToBase58())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	_, err = run(t, "keygen", "--out", path)
	assert.ErrorContains(t, err, "already exists")
}

func TestMintCommandRejectsInvalidInput(t *testing.T) {
	out, err := run(t, "mint", "--symbol", "TOOLONGSYMBOL", "--supply", "0")
	require.Error(t, err)
	assert.Contains(t, out, "name: name is required")
	assert.Contains(t, out, "symbol:")
}
