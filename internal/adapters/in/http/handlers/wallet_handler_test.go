package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type staticWallet string

func (w staticWallet) Identity() (string, bool) { return string(w), w != "" }

type runningMap map[string]string

func (m runningMap) Running(wallet string) (string, bool) {
	id, ok := m[wallet]
	return id, ok
}

func TestWalletStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	NewWalletHandler(staticWallet("Abc"), runningMap{"Abc": "sub-9"}).Get(rec, httptest.NewRequest(http.MethodGet, "/v1/wallet", nil))
	assert.JSONEq(t, `{"connected":true,"address":"Abc","runningSubmissionId":"sub-9"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	NewWalletHandler(staticWallet(""), nil).Get(rec, httptest.NewRequest(http.MethodGet, "/v1/wallet", nil))
	assert.JSONEq(t, `{"connected":false}`, rec.Body.String())
}
