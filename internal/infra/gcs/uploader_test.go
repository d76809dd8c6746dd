package gcs

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"

	mintapp "mintx/internal/application/mint"
)

func TestObjectName(t *testing.T) {
	assert.Equal(t, "mints/req-1/image/logo.png", objectName("req-1:image", "logo.png"))
	assert.Equal(t, "mints/req-1/metadata/metadata.json", objectName("req-1:metadata", "metadata.json"))
	assert.Equal(t, "mints/req-1/image/evil.png", objectName("req-1:image", "../../evil.png"))
	assert.Equal(t, "mints/req-1/image/file", objectName("req-1:image", ""))
	assert.Equal(t, "mints/solo/a.png", objectName("solo", `C:\tmp\a.png`))

	adhoc := objectName("", "a.png")
	assert.True(t, strings.HasPrefix(adhoc, "mints/adhoc/"))
	assert.NotEqual(t, adhoc, objectName("", "a.png"))
}

func TestObjectNameIsDeterministicPerKey(t *testing.T) {
	assert.Equal(t, objectName("r:image", "x.png"), objectName("r:image", "x.png"))
}

func TestPublicURL(t *testing.T) {
	u := NewUploader(nil, "mintx-assets", nil)
	assert.Equal(t,
		"https://storage.googleapis.com/mintx-assets/mints/r/image/my%20logo.png",
		u.PublicURL("mints/r/image/my logo.png"))
}

func TestIsPreconditionFailed(t *testing.T) {
	assert.True(t, isPreconditionFailed(errors.Wrap(&googleapi.Error{Code: http.StatusPreconditionFailed}, "close")))
	assert.False(t, isPreconditionFailed(&googleapi.Error{Code: http.StatusForbidden}))
	assert.False(t, isPreconditionFailed(errors.New("x")))
}

func TestUploadWithoutClient(t *testing.T) {
	u := NewUploader(nil, "b", nil)
	_, err := u.Upload(context.Background(), mintapp.File{Data: []byte("x")}, "r:image")
	assert.Error(t, err)
	_, err = u.UploadJSON(context.Background(), nil, "r:metadata")
	assert.Error(t, err)
}
