// internal/infra/solana/instructions.go
package solana

import (
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/associated_token_account"
	"github.com/blocto/solana-go-sdk/program/memo"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/cockroachdb/errors"

	tokendom "mintx/internal/domain/token"
)

// feeTransferIxs: memo(idempotency key) + SOL 送金
func feeTransferIxs(from, to common.PublicKey, lamports uint64, key string) []types.Instruction {
	ins := make([]types.Instruction, 0, 2)
	if key != "" {
		ins = append(ins, memo.BuildMemo(memo.BuildMemoParam{
			SignerPubkeys: []common.PublicKey{from},
			Memo:          []byte("mintx:" + key),
		}))
	}
	ins = append(ins, system.Transfer(system.TransferParam{
		From:   from,
		To:     to,
		Amount: lamports,
	}))
	return ins
}

type mintIxParams struct {
	Payer           common.PublicKey
	Mint            common.PublicKey
	Owner           common.PublicKey
	HoldingAccount  common.PublicKey
	Rent            uint64
	Decimals        uint8
	Amount          uint64
	MintAuthority   common.PublicKey
	FreezeAuthority *common.PublicKey
}

// createMintIxs は 1 トランザクションで
// mint 作成 → 初期化 → owner の ATA 作成 → 初回ミント を行う命令列です。
func createMintIxs(p mintIxParams) []types.Instruction {
	ins := []types.Instruction{
		system.CreateAccount(system.CreateAccountParam{
			From:     p.Payer,
			New:      p.Mint,
			Owner:    common.TokenProgramID,
			Lamports: p.Rent,
			Space:    token.MintAccountSize,
		}),
		token.InitializeMint(token.InitializeMintParam{
			Decimals:   p.Decimals,
			Mint:       p.Mint,
			MintAuth:   p.MintAuthority,
			FreezeAuth: p.FreezeAuthority,
		}),
		associated_token_account.CreateAssociatedTokenAccount(
			associated_token_account.CreateAssociatedTokenAccountParam{
				Funder:                 p.Payer,
				Owner:                  p.Owner,
				Mint:                   p.Mint,
				AssociatedTokenAccount: p.HoldingAccount,
			},
		),
	}
	if p.Amount > 0 {
		ins = append(ins, token.MintTo(token.MintToParam{
			Mint:   p.Mint,
			To:     p.HoldingAccount,
			Auth:   p.MintAuthority,
			Amount: p.Amount,
		}))
	}
	return ins
}

type metadataIxParams struct {
	Mint                 common.PublicKey
	Authority            common.PublicKey
	Payer                common.PublicKey
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
	Creators             []token_metadata.Creator
	IsMutable            bool
}

func createMetadataIx(p metadataIxParams) (types.Instruction, error) {
	metadataPubkey, err := token_metadata.GetTokenMetaPubkey(p.Mint)
	if err != nil {
		return types.Instruction{}, errors.Wrap(err, "GetTokenMetaPubkey")
	}

	var creators *[]token_metadata.Creator
	if len(p.Creators) > 0 {
		cs := p.Creators
		creators = &cs
	}

	return token_metadata.CreateMetadataAccountV3(token_metadata.CreateMetadataAccountV3Param{
		Metadata:                metadataPubkey,
		Mint:                    p.Mint,
		MintAuthority:           p.Authority,
		UpdateAuthority:         p.Authority,
		Payer:                   p.Payer,
		UpdateAuthorityIsSigner: true,
		IsMutable:               p.IsMutable,
		Data: token_metadata.DataV2{
			Name:                 p.Name,
			Symbol:               p.Symbol,
			Uri:                  p.URI,
			SellerFeeBasisPoints: p.SellerFeeBasisPoints,
			Creators:             creators,
		},
		CollectionDetails: nil,
	}), nil
}

// revokeIxs は指定された権限をすべて None にする SetAuthority 命令列です（1 トランザクションにまとめる）。
func revokeIxs(mint, current common.PublicKey, kinds []tokendom.AuthorityType) ([]types.Instruction, error) {
	if len(kinds) == 0 {
		return nil, errors.New("no authority to revoke")
	}
	ins := make([]types.Instruction, 0, len(kinds))
	seen := map[tokendom.AuthorityType]bool{}
	for _, k := range kinds {
		if seen[k] {
			continue
		}
		seen[k] = true

		var at token.AuthorityType
		switch k {
		case tokendom.AuthorityMintTokens:
			at = token.AuthorityTypeMintTokens
		case tokendom.AuthorityFreezeAccount:
			at = token.AuthorityTypeFreezeAccount
		default:
			return nil, errors.Newf("unsupported authority type %q", k)
		}
		ins = append(ins, token.SetAuthority(token.SetAuthorityParam{
			Account:  mint,
			NewAuth:  nil,
			AuthType: at,
			Auth:     current,
		}))
	}
	return ins, nil
}
