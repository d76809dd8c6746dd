package mint

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type walletMock struct {
	address   string
	connected bool
}

func (w walletMock) Identity() (string, bool) { return w.address, w.connected }

type uploaderMock struct {
	mock.Mock
}

var _ ContentUploader = (*uploaderMock)(nil)

func (m *uploaderMock) Upload(ctx context.Context, file File, key string) (string, error) {
	args := m.Called(ctx, file, key)
	return args.String(0), args.Error(1)
}

func (m *uploaderMock) UploadJSON(ctx context.Context, document []byte, key string) (string, error) {
	args := m.Called(ctx, document, key)
	return args.String(0), args.Error(1)
}

type ledgerMock struct {
	mock.Mock
}

var _ LedgerService = (*ledgerMock)(nil)

func (m *ledgerMock) NewMintKeypair() (MintKeypair, error) {
	args := m.Called()
	return args.Get(0).(MintKeypair), args.Error(1)
}

func (m *ledgerMock) Transfer(ctx context.Context, in TransferInput) (string, error) {
	args := m.Called(ctx, in)
	return args.String(0), args.Error(1)
}

func (m *ledgerMock) CreateMintWithHolding(ctx context.Context, in CreateMintInput) (string, error) {
	args := m.Called(ctx, in)
	return args.String(0), args.Error(1)
}

func (m *ledgerMock) AttachMetadata(ctx context.Context, in AttachMetadataInput) (string, error) {
	args := m.Called(ctx, in)
	return args.String(0), args.Error(1)
}

func (m *ledgerMock) DeriveHoldingAccountAddress(mint, owner string) (string, error) {
	args := m.Called(mint, owner)
	return args.String(0), args.Error(1)
}

func (m *ledgerMock) SetAuthority(ctx context.Context, in SetAuthorityInput) (string, error) {
	args := m.Called(ctx, in)
	return args.String(0), args.Error(1)
}

type metricsMock struct {
	attempts map[string][]bool
	retries  map[string]int
	outcomes []Outcome
}

func newMetricsMock() *metricsMock {
	return &metricsMock{attempts: map[string][]bool{}, retries: map[string]int{}}
}

func (m *metricsMock) ObserveAttempt(step string, ok bool) {
	m.attempts[step] = append(m.attempts[step], ok)
}
func (m *metricsMock) ObserveRetry(step string)       { m.retries[step]++ }
func (m *metricsMock) ObserveOutcome(outcome Outcome) { m.outcomes = append(m.outcomes, outcome) }
