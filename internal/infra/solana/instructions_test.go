package solana

import (
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tokendom "mintx/internal/domain/token"
)

var (
	systemProgram   = common.PublicKeyFromString("11111111111111111111111111111111")
	tokenProgram    = common.PublicKeyFromString("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	ataProgram      = common.PublicKeyFromString("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
	memoProgram     = common.PublicKeyFromString("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")
	metadataProgram = common.PublicKeyFromString("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")
)

func programs(ins []types.Instruction) []common.PublicKey {
	out := make([]common.PublicKey, len(ins))
	for i, in := range ins {
		out[i] = in.ProgramID
	}
	return out
}

func TestFeeTransferIxs(t *testing.T) {
	from := types.NewAccount().PublicKey
	to := types.NewAccount().PublicKey

	ins := feeTransferIxs(from, to, 20_000_000, "req:fee")
	assert.Equal(t, []common.PublicKey{memoProgram, systemProgram}, programs(ins))
	assert.Equal(t, []byte("mintx:req:fee"), ins[0].Data)

	assert.Equal(t, []common.PublicKey{systemProgram}, programs(feeTransferIxs(from, to, 1, "")))
}

func TestCreateMintIxs(t *testing.T) {
	payer := types.NewAccount().PublicKey
	mint := types.NewAccount().PublicKey
	holding := types.NewAccount().PublicKey

	ins := createMintIxs(mintIxParams{
		Payer: payer, Mint: mint, Owner: payer, HoldingAccount: holding,
		Rent: 1, Decimals: 9, Amount: 5, MintAuthority: payer,
	})
	assert.Equal(t, []common.PublicKey{systemProgram, tokenProgram, ataProgram, tokenProgram}, programs(ins))

	noSupply := createMintIxs(mintIxParams{Payer: payer, Mint: mint, Owner: payer, HoldingAccount: holding, MintAuthority: payer})
	assert.Len(t, noSupply, 3, "no MintTo when amount is zero")
}

func TestCreateMetadataIx(t *testing.T) {
	auth := types.NewAccount().PublicKey
	ix, err := createMetadataIx(metadataIxParams{
		Mint: types.NewAccount().PublicKey, Authority: auth, Payer: auth,
		Name: "T", Symbol: "T", URI: "https://x",
		Creators: nil, IsMutable: true,
	})
	require.NoError(t, err)
	assert.Equal(t, metadataProgram, ix.ProgramID)
}

func TestRevokeIxs(t *testing.T) {
	mint := types.NewAccount().PublicKey
	auth := types.NewAccount().PublicKey

	ins, err := revokeIxs(mint, auth, []tokendom.AuthorityType{
		tokendom.AuthorityFreezeAccount, tokendom.AuthorityMintTokens, tokendom.AuthorityFreezeAccount,
	})
	require.NoError(t, err)
	require.Len(t, ins, 2, "duplicates collapse")
	assert.Equal(t, []common.PublicKey{tokenProgram, tokenProgram}, programs(ins))

	_, err = revokeIxs(mint, auth, nil)
	assert.Error(t, err)
	_, err = revokeIxs(mint, auth, []tokendom.AuthorityType{"closeAccount"})
	assert.Error(t, err)
}
