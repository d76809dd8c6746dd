// internal/infra/gcs/uploader.go
package gcs

import (
	"context"
	"net/http"
	"net/url"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"

	mintapp "mintx/internal/application/mint"
)

const defaultPublicBaseURL = "https://storage.googleapis.com"

// Uploader stores images and metadata JSON in a public GCS bucket.
//
// object layout:
//
//	mints/{requestId}/{step}/{fileName}
//
// bucket は uniform access + allUsers:objectViewer を前提（オブジェクト単位の ACL は触らない）。
type Uploader struct {
	client        *storage.Client
	bucket        string
	publicBaseURL string
	logger        *zap.Logger
}

var _ mintapp.ContentUploader = (*Uploader)(nil)

func NewUploader(client *storage.Client, bucket string, logger *zap.Logger) *Uploader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Uploader{
		client:        client,
		bucket:        strings.TrimSpace(bucket),
		publicBaseURL: defaultPublicBaseURL,
		logger:        logger.Named("gcs"),
	}
}

// Ping は bucket の属性を読んで権限と存在を確認します（mintctl uploader check 用）。
func (u *Uploader) Ping(ctx context.Context) error {
	if u.client == nil || u.bucket == "" {
		return errors.New("gcs: uploader is not configured")
	}
	if _, err := u.client.Bucket(u.bucket).Attrs(ctx); err != nil {
		return errors.Wrapf(err, "gcs: bucket %s", u.bucket)
	}
	return nil
}

func (u *Uploader) Upload(ctx context.Context, file mintapp.File, key string) (string, error) {
	if len(file.Data) == 0 {
		return "", errors.New("gcs: file is empty")
	}
	ct := strings.TrimSpace(file.ContentType)
	if ct == "" {
		ct = http.DetectContentType(file.Data)
	}
	return u.put(ctx, objectName(key, file.Name), ct, file.Data)
}

func (u *Uploader) UploadJSON(ctx context.Context, document []byte, key string) (string, error) {
	if len(document) == 0 {
		return "", errors.New("gcs: metadata JSON is empty")
	}
	return u.put(ctx, objectName(key, "metadata.json"), "application/json", document)
}

func (u *Uploader) put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if u == nil || u.client == nil {
		return "", errors.New("gcs: storage client is nil")
	}
	if u.bucket == "" {
		return "", errors.New("gcs: bucket is empty")
	}

	// 同名オブジェクトが既にあれば前回の試行で書けている
	obj := u.client.Bucket(u.bucket).Object(name).If(storage.Conditions{DoesNotExist: true})
	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=31536000, immutable"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", errors.Wrapf(err, "gcs: write %s", name)
	}
	if err := w.Close(); err != nil {
		if isPreconditionFailed(err) {
			u.logger.Info("object already exists, reusing", zap.String("object", name))
			return u.PublicURL(name), nil
		}
		return "", errors.Wrapf(err, "gcs: close %s", name)
	}

	uri := u.PublicURL(name)
	u.logger.Info("upload ok", zap.String("object", name), zap.Int("size", len(data)))
	return uri, nil
}

// PublicURL は https://storage.googleapis.com/{bucket}/{object} を返します。
func (u *Uploader) PublicURL(object string) string {
	return strings.TrimRight(u.publicBaseURL, "/") + "/" + url.PathEscape(u.bucket) + "/" + escapeObject(object)
}

// objectName: "req:image" + "logo.png" -> "mints/req/image/logo.png"
// key が空なら衝突しないようランダムなパスにする。
func objectName(key, fileName string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(fileName), "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "file"
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return path.Join("mints", "adhoc", uuid.NewString(), base)
	}
	parts := strings.SplitN(key, ":", 2)
	if len(parts) == 1 {
		return path.Join("mints", sanitize(parts[0]), base)
	}
	return path.Join("mints", sanitize(parts[0]), sanitize(parts[1]), base)
}

func sanitize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "..", "_")
	if s == "" {
		return "_"
	}
	return s
}

func escapeObject(name string) string {
	segs := strings.Split(name, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusPreconditionFailed
	}
	return false
}
