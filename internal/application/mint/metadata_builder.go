// internal/application/mint/metadata_builder.go
package mint

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"

	reqdom "mintx/internal/domain/mintRequest"
)

// TokenMetadata は Arweave/GCS に置く off-chain メタデータ JSON です。
type TokenMetadata struct {
	Name        string             `json:"name"`
	Symbol      string             `json:"symbol"`
	Description string             `json:"description"`
	Image       string             `json:"image"`
	Properties  MetadataProperties `json:"properties"`
}

type MetadataProperties struct {
	Files   []MetadataFile      `json:"files"`
	Socials *reqdom.SocialLinks `json:"socials,omitempty"`
}

type MetadataFile struct {
	URI  string `json:"uri"`
	Type string `json:"type"`
}

// TokenMetadataBuilder は MintRequest と画像 URI からメタデータ JSON を生成します。
type TokenMetadataBuilder struct{}

func NewTokenMetadataBuilder() *TokenMetadataBuilder {
	return &TokenMetadataBuilder{}
}

// Build embeds the image URI; socials are included only when the request opted in.
func (b *TokenMetadataBuilder) Build(req reqdom.MintRequest, imageURI string) ([]byte, error) {
	imageURI = strings.TrimSpace(imageURI)
	if imageURI == "" {
		return nil, errors.New("metadata: image uri is empty")
	}

	md := TokenMetadata{
		Name:        req.Name,
		Symbol:      req.Symbol,
		Description: req.Description,
		Image:       imageURI,
		Properties: MetadataProperties{
			Files: []MetadataFile{
				{URI: imageURI, Type: req.Image.ContentType},
			},
			Socials: req.Socials,
		},
	}

	data, err := json.Marshal(md)
	if err != nil {
		return nil, errors.Wrap(err, "metadata: marshal")
	}
	return data, nil
}
