// internal/infra/solana/keypair.go
package solana

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"os"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretspb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/cockroachdb/errors"
	"github.com/mr-tron/base58"
)

var ErrNoKeySource = errors.New("solana: no keypair source configured")

// KeySource は署名鍵の取得元です。上から順に最初に設定されているものを使います。
type KeySource struct {
	// solana-keygen 形式の JSON ([u8;64]) を直接渡す（ローカル開発用）
	JSON string
	// solana-keygen の keypair ファイルパス
	Path string
	// "projects/<PROJECT_ID>/secrets/<SECRET_ID>/versions/latest"
	SecretName string
}

func (s KeySource) IsZero() bool {
	return strings.TrimSpace(s.JSON) == "" && strings.TrimSpace(s.Path) == "" && strings.TrimSpace(s.SecretName) == ""
}

// LoadKeypair は KeySource から types.Account を復元します。
func LoadKeypair(ctx context.Context, src KeySource) (types.Account, error) {
	var (
		raw    []byte
		origin string
	)
	switch {
	case strings.TrimSpace(src.JSON) != "":
		raw, origin = []byte(src.JSON), "env"
	case strings.TrimSpace(src.Path) != "":
		b, err := os.ReadFile(strings.TrimSpace(src.Path))
		if err != nil {
			return types.Account{}, errors.Wrap(err, "solana: read keypair file")
		}
		raw, origin = b, "file"
	case strings.TrimSpace(src.SecretName) != "":
		b, err := accessSecret(ctx, strings.TrimSpace(src.SecretName))
		if err != nil {
			return types.Account{}, err
		}
		raw, origin = b, "secret"
	default:
		return types.Account{}, ErrNoKeySource
	}

	keyBytes, err := decodeKeypairJSON(raw)
	if err != nil {
		return types.Account{}, errors.Wrapf(err, "solana: decode keypair (%s)", origin)
	}
	acc, err := types.AccountFromBytes(keyBytes)
	if err != nil {
		return types.Account{}, errors.Wrap(err, "solana: AccountFromBytes")
	}
	return acc, nil
}

func accessSecret(ctx context.Context, name string) ([]byte, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "solana: secretmanager.NewClient")
	}
	defer client.Close()

	resp, err := client.AccessSecretVersion(ctx, &secretspb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return nil, errors.Wrapf(err, "solana: access secret version %s", name)
	}
	if resp.GetPayload() == nil || len(resp.GetPayload().GetData()) == 0 {
		return nil, errors.Newf("solana: secret %s is empty", name)
	}
	return resp.GetPayload().GetData(), nil
}

// decodeKeypairJSON は keypair JSON から 64 バイトの鍵配列を復元します。
// - 正: [u8;64]
// - 互換: base58 文字列（Phantom のエクスポート形式）
func decodeKeypairJSON(data []byte) ([]byte, error) {
	s := strings.TrimSpace(string(data))
	if s == "" {
		return nil, errors.New("keypair is empty")
	}

	if !strings.HasPrefix(s, "[") {
		b, err := base58.Decode(strings.Trim(s, `"`))
		if err != nil {
			return nil, errors.Wrap(err, "keypair is neither a JSON array nor base58")
		}
		if len(b) != ed25519.PrivateKeySize {
			return nil, errors.Newf("unexpected secret key length: got %d, want %d", len(b), ed25519.PrivateKeySize)
		}
		return b, nil
	}

	var ints []int
	if err := json.Unmarshal([]byte(s), &ints); err != nil {
		return nil, errors.Wrap(err, "unmarshal keypair json")
	}
	if len(ints) != ed25519.PrivateKeySize {
		return nil, errors.Newf("unexpected secret key length: got %d, want %d", len(ints), ed25519.PrivateKeySize)
	}
	out := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, errors.Newf("byte out of range at %d: %d", i, v)
		}
		out[i] = byte(v)
	}
	return out, nil
}

// EncodeKeypairJSON は solana-keygen 互換の JSON 配列を返します（mintctl keygen 用）。
func EncodeKeypairJSON(acc types.Account) ([]byte, error) {
	ints := make([]int, len(acc.PrivateKey))
	for i, b := range acc.PrivateKey {
		ints[i] = int(b)
	}
	return json.Marshal(ints)
}
