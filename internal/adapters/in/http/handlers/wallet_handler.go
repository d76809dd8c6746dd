// internal/adapters/in/http/handlers/wallet_handler.go
package handlers

import (
	"net/http"

	mintapp "mintx/internal/application/mint"
)

// RunningLookup は submission.Service.Running です。
type RunningLookup interface {
	Running(wallet string) (string, bool)
}

// WalletHandler はサーバ側署名鍵の接続状態を返します。
type WalletHandler struct {
	wallet  mintapp.WalletSigner
	running RunningLookup
}

func NewWalletHandler(wallet mintapp.WalletSigner, running RunningLookup) *WalletHandler {
	return &WalletHandler{wallet: wallet, running: running}
}

type walletResponse struct {
	Connected bool   `json:"connected"`
	Address   string `json:"address,omitempty"`
	RunningID string `json:"runningSubmissionId,omitempty"`
}

// GET /v1/wallet
func (h *WalletHandler) Get(w http.ResponseWriter, _ *http.Request) {
	var resp walletResponse
	if h.wallet != nil {
		if id, ok := h.wallet.Identity(); ok && id != "" {
			resp.Connected = true
			resp.Address = id
			if h.running != nil {
				resp.RunningID, _ = h.running.Running(id)
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
