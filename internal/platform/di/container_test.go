package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpin "mintx/internal/adapters/in/http"
	"mintx/internal/infra/config"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Port:              "8080",
		SolanaRPCURL:      "http://127.0.0.1:0",
		FeeAddress:        "11111111111111111111111111111111",
		Uploader:          config.UploaderIrys,
		ArweaveBaseURL:    "http://127.0.0.1:0",
		SubmissionStore:   config.StoreMemory,
		RetryMaxAttempts:  3,
		RevokeStrategy:    "deferred",
		CORSAllowedOrigin: "*",
	}
}

func TestNewContainerWithoutSigner(t *testing.T) {
	c, err := NewContainer(context.Background(), memoryConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(context.Background()) })

	assert.Nil(t, c.Signer)
	require.NotNil(t, c.Submissions)

	h := httpin.NewRouter(c.RouterDeps())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/wallet", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"connected":false}`, rec.Body.String())
}

func TestNewContainerNilConfig(t *testing.T) {
	_, err := NewContainer(context.Background(), nil, nil)
	assert.Error(t, err)
}
