// internal/infra/firestore/client.go
package firestoreinfra

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// ClientWrapper は Firestore クライアントとプロジェクト ID を束ねます。
type ClientWrapper struct {
	Client    *firestore.Client
	ProjectID string
}

// NewClient は Firestore クライアントを初期化します。
// credentialsFile が空なら ADC (Application Default Credentials) を使います。
func NewClient(ctx context.Context, projectID, credentialsFile string, logger *zap.Logger) (*ClientWrapper, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "firestore: create client")
	}

	if logger != nil {
		logger.Named("firestore").Info("connected", zap.String("project", projectID))
	}
	return &ClientWrapper{Client: client, ProjectID: projectID}, nil
}

// Ping は軽い読み取りで疎通確認します（Firestore に Ping API は無い）。
func (cw *ClientWrapper) Ping(ctx context.Context) error {
	if cw == nil || cw.Client == nil {
		return errors.New("firestore: client is nil")
	}
	if _, err := cw.Client.Collections(ctx).Next(); err != nil && !isIteratorDone(err) {
		return errors.Wrap(err, "firestore: ping")
	}
	return nil
}

func isIteratorDone(err error) bool {
	return errors.Is(err, iterator.Done)
}

func (cw *ClientWrapper) Close() error {
	if cw == nil || cw.Client == nil {
		return nil
	}
	return cw.Client.Close()
}
