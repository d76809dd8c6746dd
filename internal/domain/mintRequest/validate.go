// internal/domain/mintRequest/validate.go
package mintRequest

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Validate は Draft を検証し、正規化済みの MintRequest を返します。
// ネットワークには一切触れません。違反はすべてまとめて ValidationError で返します。
func Validate(d Draft) (MintRequest, error) {
	var vs []Violation
	add := func(field string, code Code, format string, args ...any) {
		vs = append(vs, Violation{Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
	}

	name := strings.TrimSpace(d.Name)
	switch {
	case name == "":
		add("name", CodeInvalidName, "name is required")
	case len(name) > MaxNameBytes:
		add("name", CodeInvalidName, "name must be at most %d bytes", MaxNameBytes)
	}

	symbol := strings.TrimSpace(d.Symbol)
	switch {
	case symbol == "":
		add("symbol", CodeInvalidSymbol, "symbol is required")
	case len(symbol) > MaxSymbolBytes:
		add("symbol", CodeInvalidSymbol, "symbol must be at most %d bytes", MaxSymbolBytes)
	}

	decimals, decimalsOK := parseDecimals(d.Decimals)
	if !decimalsOK {
		add("decimals", CodeInvalidDecimals, "decimals must be an integer between 0 and %d", MaxDecimals)
	}

	supply, supplyOK := parseSupply(d.InitialSupply)
	if !supplyOK {
		add("initialSupply", CodeInvalidSupply, "initial supply must be a number greater than 0")
	}

	// raw amount は decimals と supply が両方正しいときだけ計算できる
	var raw decimal.Decimal
	if decimalsOK && supplyOK {
		raw = supply.Shift(int32(decimals))
		switch {
		case !raw.IsInteger():
			add("initialSupply", CodeInvalidSupply, "initial supply has more than %d fractional digits", decimals)
		case !raw.BigInt().IsUint64():
			add("initialSupply", CodeInvalidSupply, "initial supply × 10^%d exceeds the u64 token amount range", decimals)
		}
	}

	img := d.Image
	img.FileName = strings.TrimSpace(img.FileName)
	img.ContentType = strings.TrimSpace(img.ContentType)
	switch {
	case img.Size() == 0:
		add("image", CodeImageMissing, "image is required")
	case img.Size() > MaxImageBytes:
		add("image", CodeImageTooLarge, "image must be at most 5MB (got %d bytes)", img.Size())
	default:
		if img.ContentType == "" || img.ContentType == "application/octet-stream" {
			img.ContentType = http.DetectContentType(img.Data)
		}
		if !strings.HasPrefix(img.ContentType, "image/") {
			add("image", CodeImageUnsupported, "unsupported media type %q", img.ContentType)
		}
	}
	if img.FileName == "" {
		img.FileName = "image"
	}

	var socials *SocialLinks
	if d.IncludeSocials {
		s := SocialLinks{
			Website:  strings.TrimSpace(d.Socials.Website),
			Twitter:  strings.TrimSpace(d.Socials.Twitter),
			Telegram: strings.TrimSpace(d.Socials.Telegram),
			Discord:  strings.TrimSpace(d.Socials.Discord),
		}
		if s.Website != "" && !isHTTPURL(s.Website) {
			add("socials.website", CodeInvalidSocialLink, "website must be an http(s) URL")
		}
		socials = &s
	}

	if len(vs) > 0 {
		return MintRequest{}, &ValidationError{Violations: vs}
	}

	return MintRequest{
		Name:                  name,
		Symbol:                symbol,
		Decimals:              decimals,
		InitialSupply:         supply,
		Image:                 img,
		Description:           strings.TrimSpace(d.Description),
		Socials:               socials,
		RevokeMintAuthority:   d.RevokeMintAuthority,
		RevokeFreezeAuthority: d.RevokeFreezeAuthority,
		rawAmount:             raw.BigInt(),
	}, nil
}

func parseDecimals(s string) (uint8, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		s = DefaultDecimals
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > MaxDecimals {
		return 0, false
	}
	return uint8(n), true
}

func parseSupply(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	v, err := decimal.NewFromString(s)
	if err != nil || !v.IsPositive() {
		return decimal.Zero, false
	}
	return v, true
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
