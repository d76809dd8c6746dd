// internal/infra/solana/chain.go
package solana

import (
	"context"
	"strings"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/cockroachdb/errors"
)

// DevnetEndpoint は SOLANA_RPC_URL 未設定時の既定値です。
const DevnetEndpoint = rpc.DevnetRPCEndpoint

// txState は送信済みトランザクションのオンチェーン状態です。
type txState int

const (
	txUnknown   txState = iota // まだ見えていない（ドロップ含む）
	txPending                  // processed
	txConfirmed                // confirmed / finalized
	txFailed                   // 実行エラー
)

type txStatus struct {
	State txState
	Err   string
}

// chain は Ledger が使う RPC の最小集合です。
type chain interface {
	LatestBlockhash(ctx context.Context) (string, error)
	RentExemption(ctx context.Context, size uint64) (uint64, error)
	Send(ctx context.Context, tx types.Transaction) (string, error)
	Status(ctx context.Context, signature string) (txStatus, error)
	Balance(ctx context.Context, address string) (uint64, error)
}

// rpcChain は blocto の client.Client を chain に合わせます。
type rpcChain struct {
	c *client.Client
}

func newRPCChain(endpoint string) *rpcChain {
	ep := strings.TrimSpace(endpoint)
	if ep == "" {
		ep = DevnetEndpoint
	}
	return &rpcChain{c: client.NewClient(ep)}
}

func (r *rpcChain) LatestBlockhash(ctx context.Context) (string, error) {
	res, err := r.c.GetLatestBlockhash(ctx)
	if err != nil {
		return "", errors.Wrap(err, "GetLatestBlockhash")
	}
	return res.Blockhash, nil
}

func (r *rpcChain) RentExemption(ctx context.Context, size uint64) (uint64, error) {
	v, err := r.c.GetMinimumBalanceForRentExemption(ctx, size)
	if err != nil {
		return 0, errors.Wrap(err, "GetMinimumBalanceForRentExemption")
	}
	return v, nil
}

func (r *rpcChain) Send(ctx context.Context, tx types.Transaction) (string, error) {
	sig, err := r.c.SendTransaction(ctx, tx)
	if err != nil {
		return "", errors.Wrap(err, "SendTransaction")
	}
	return sig, nil
}

func (r *rpcChain) Status(ctx context.Context, signature string) (txStatus, error) {
	st, err := r.c.GetSignatureStatus(ctx, signature)
	if err != nil {
		return txStatus{}, errors.Wrap(err, "GetSignatureStatus")
	}
	if st == nil {
		return txStatus{State: txUnknown}, nil
	}
	if st.Err != nil {
		return txStatus{State: txFailed, Err: errors.Newf("%v", st.Err).Error()}, nil
	}
	if st.ConfirmationStatus != nil {
		switch *st.ConfirmationStatus {
		case rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
			return txStatus{State: txConfirmed}, nil
		}
	}
	return txStatus{State: txPending}, nil
}

func (r *rpcChain) Balance(ctx context.Context, address string) (uint64, error) {
	v, err := r.c.GetBalance(ctx, address)
	if err != nil {
		return 0, errors.Wrap(err, "GetBalance")
	}
	return v, nil
}

// isBlockhashExpired は再送不能（作り直しが必要）な送信エラーかを判定します。
func isBlockhashExpired(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "blockhash not found") ||
		strings.Contains(msg, "block height exceeded")
}
