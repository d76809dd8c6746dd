package mint

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	reqdom "mintx/internal/domain/mintRequest"
)

func TestTokenMetadataBuilder_Build(t *testing.T) {
	req := reqdom.MintRequest{
		Name:        "My Amazing Token",
		Symbol:      "MAT",
		Description: "hello",
		Image:       reqdom.Image{ContentType: "image/png"},
	}

	data, err := NewTokenMetadataBuilder().Build(req, " https://arweave.net/abc ")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "My Amazing Token", got["name"])
	assert.Equal(t, "MAT", got["symbol"])
	assert.Equal(t, "hello", got["description"])
	assert.Equal(t, "https://arweave.net/abc", got["image"])

	props := got["properties"].(map[string]any)
	assert.NotContains(t, props, "socials")
	files := props["files"].([]any)
	require.Len(t, files, 1)
	assert.Equal(t, map[string]any{"uri": "https://arweave.net/abc", "type": "image/png"}, files[0])
}

func TestTokenMetadataBuilder_Socials(t *testing.T) {
	req := reqdom.MintRequest{
		Name:    "T",
		Symbol:  "T",
		Image:   reqdom.Image{ContentType: "image/gif"},
		Socials: &reqdom.SocialLinks{Website: "https://example.com", Twitter: "@t"},
	}

	data, err := NewTokenMetadataBuilder().Build(req, "https://arweave.net/x")
	require.NoError(t, err)

	var md TokenMetadata
	require.NoError(t, json.Unmarshal(data, &md))
	require.NotNil(t, md.Properties.Socials)
	assert.Equal(t, "https://example.com", md.Properties.Socials.Website)
	assert.Equal(t, "@t", md.Properties.Socials.Twitter)
}

func TestTokenMetadataBuilder_EmptyImage(t *testing.T) {
	_, err := NewTokenMetadataBuilder().Build(reqdom.MintRequest{}, "  ")
	assert.Error(t, err)
}
