// internal/infra/arweave/uploader.go
package arweave

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	mintapp "mintx/internal/application/mint"
)

var ErrNotConfigured = errors.New("arweave: baseURL is empty; endpoint not configured")

// レスポンス本文はログ・エラーに載せる前にこの長さで切る
const maxBodyInError = 512

// HTTPUploader は Irys Uploader（Cloud Run ラッパ）の HTTP API を叩く実装です。
//
//	POST {baseURL}/upload/file  multipart "file"        -> {"uri": "..."}
//	POST {baseURL}/upload/json  application/json body   -> {"uri": "..."}
type HTTPUploader struct {
	client  *http.Client
	baseURL string // 例: "https://mintx-irys-uploader-xxxx.asia-northeast1.run.app"
	apiKey  string // 認証が必要な場合のみ
	logger  *zap.Logger
}

var _ mintapp.ContentUploader = (*HTTPUploader)(nil)

func NewHTTPUploader(baseURL, apiKey string, logger *zap.Logger) *HTTPUploader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPUploader{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		logger:  logger.Named("arweave"),
	}
}

// WithHTTPClient はテスト用にクライアントを差し替えます。
func (u *HTTPUploader) WithHTTPClient(c *http.Client) *HTTPUploader {
	if c != nil {
		u.client = c
	}
	return u
}

// Upload は画像などのバイナリを multipart で送り、その URI を返します。
func (u *HTTPUploader) Upload(ctx context.Context, file mintapp.File, key string) (string, error) {
	if len(file.Data) == 0 {
		return "", errors.New("arweave: file is empty")
	}

	name := strings.TrimSpace(file.Name)
	if name == "" {
		name = "file"
	}
	ct := strings.TrimSpace(file.ContentType)
	if ct == "" {
		ct = "application/octet-stream"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+escapeQuotes(name)+`"`)
	h.Set("Content-Type", ct)
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", errors.Wrap(err, "arweave: create multipart part")
	}
	if _, err := part.Write(file.Data); err != nil {
		return "", errors.Wrap(err, "arweave: write multipart part")
	}
	if err := mw.Close(); err != nil {
		return "", errors.Wrap(err, "arweave: close multipart")
	}

	u.logger.Debug("upload file start", zap.String("name", name), zap.String("contentType", ct), zap.Int("size", len(file.Data)))
	return u.post(ctx, "/upload/file", mw.FormDataContentType(), &body, key)
}

// UploadJSON は metadata JSON をそのまま送り、その URI を返します。
func (u *HTTPUploader) UploadJSON(ctx context.Context, document []byte, key string) (string, error) {
	if len(document) == 0 {
		return "", errors.New("arweave: metadata JSON is empty")
	}
	if !json.Valid(document) {
		return "", errors.New("arweave: metadata is not valid JSON")
	}
	u.logger.Debug("upload json start", zap.Int("size", len(document)))
	return u.post(ctx, "/upload/json", "application/json", bytes.NewReader(document), key)
}

func (u *HTTPUploader) post(ctx context.Context, path, contentType string, body io.Reader, key string) (string, error) {
	if u.baseURL == "" {
		return "", ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+path, body)
	if err != nil {
		return "", errors.Wrap(err, "arweave: create request")
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if u.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+u.apiKey)
	}
	if key != "" {
		// 同じキーの再送はアップローダ側で同じ URI を返す
		req.Header.Set("Idempotency-Key", key)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		u.logger.Warn("http request failed", zap.String("path", path), zap.Error(err))
		return "", errors.Wrapf(err, "arweave: POST %s", path)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		u.logger.Warn("upload failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(raw)),
		)
		return "", errors.Newf("arweave: upload failed: status=%d body=%s", resp.StatusCode, truncate(raw))
	}

	var res struct {
		URI string `json:"uri"` // 例: "https://gateway.irys.xyz/xxxx"
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", errors.Wrapf(err, "arweave: decode upload response body=%s", truncate(raw))
	}
	uri := strings.TrimSpace(res.URI)
	if uri == "" {
		return "", errors.New("arweave: upload response has empty uri")
	}

	u.logger.Info("upload ok", zap.String("path", path), zap.String("uri", uri))
	return uri, nil
}

// Ping は /healthz を叩いて到達性だけ確認します（mintctl uploader check 用）。
func (u *HTTPUploader) Ping(ctx context.Context) error {
	if u.baseURL == "" {
		return ErrNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.baseURL+"/healthz", nil)
	if err != nil {
		return errors.Wrap(err, "arweave: create request")
	}
	resp, err := u.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "arweave: ping")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Newf("arweave: ping status=%d", resp.StatusCode)
	}
	return nil
}

func truncate(b []byte) string {
	s := string(b)
	if len(s) > maxBodyInError {
		return s[:maxBodyInError] + "..."
	}
	return s
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string { return quoteEscaper.Replace(s) }
