package mintRequest

import (
	"bytes"
	"fmt"
	"math/big"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func validDraft() Draft {
	return Draft{
		Name:          "My Amazing Token",
		Symbol:        "MAT",
		Decimals:      "6",
		InitialSupply: "1000000",
		Image:         Image{Data: pngHeader, ContentType: "image/png", FileName: "logo.png"},
		Description:   "  a token  ",
	}
}

func requireViolation(t *testing.T, err error, code Code) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	ve, ok := AsValidationError(err)
	require.True(t, ok)
	assert.True(t, ve.Has(code), "want %s in %v", code, ve.Violations)
}

func TestValidateOK(t *testing.T) {
	req, err := Validate(validDraft())
	require.NoError(t, err)

	assert.Equal(t, "My Amazing Token", req.Name)
	assert.Equal(t, uint8(6), req.Decimals)
	assert.Equal(t, "a token", req.Description)
	assert.Nil(t, req.Socials)
	assert.Equal(t, uint64(1_000_000_000_000), req.RawAmountUint64())
}

func TestValidateDecimalsOutOfRange(t *testing.T) {
	for _, d := range []string{"-1", "10", "99", "abc", "1.5"} {
		t.Run(d, func(t *testing.T) {
			draft := validDraft()
			draft.Decimals = d
			_, err := Validate(draft)
			requireViolation(t, err, CodeInvalidDecimals)
		})
	}
}

func TestValidateDecimalsDefault(t *testing.T) {
	draft := validDraft()
	draft.Decimals = ""
	draft.InitialSupply = "1"
	req, err := Validate(draft)
	require.NoError(t, err)
	assert.Equal(t, uint8(9), req.Decimals)
	assert.Equal(t, uint64(1_000_000_000), req.RawAmountUint64())
}

func TestValidateSupply(t *testing.T) {
	for _, s := range []string{"", "0", "-5", "abc", "1,000"} {
		t.Run(fmt.Sprintf("%q", s), func(t *testing.T) {
			draft := validDraft()
			draft.InitialSupply = s
			_, err := Validate(draft)
			requireViolation(t, err, CodeInvalidSupply)
		})
	}
}

func TestValidateSupplyTooPrecise(t *testing.T) {
	draft := validDraft()
	draft.Decimals = "2"
	draft.InitialSupply = "1.005"
	_, err := Validate(draft)
	requireViolation(t, err, CodeInvalidSupply)
}

func TestValidateSupplyOverflow(t *testing.T) {
	draft := validDraft()
	draft.Decimals = "9"
	draft.InitialSupply = "1000000000000000" // 10^15 × 10^9 > u64
	_, err := Validate(draft)
	requireViolation(t, err, CodeInvalidSupply)
}

func TestRawAmountIsExact(t *testing.T) {
	cases := []struct {
		supply   string
		decimals string
		want     string
	}{
		{"1000000000000000", "4", "10000000000000000000"},
		{"999999999999999", "4", "9999999999999990000"},
		{"0.1", "1", "1"},
		{"0.3", "9", "300000000"},
		{"123456789.123456789", "9", "123456789123456789"},
		{"1e6", "0", "1000000"},
	}
	for _, tc := range cases {
		t.Run(tc.supply+"/"+tc.decimals, func(t *testing.T) {
			draft := validDraft()
			draft.InitialSupply = tc.supply
			draft.Decimals = tc.decimals
			req, err := Validate(draft)
			require.NoError(t, err)

			want, ok := new(big.Int).SetString(tc.want, 10)
			require.True(t, ok)
			assert.Equal(t, 0, want.Cmp(req.RawAmount()), "got %s", req.RawAmount())
			assert.Equal(t, want.Uint64(), req.RawAmountUint64())
		})
	}
}

func TestRawAmountReturnsCopy(t *testing.T) {
	req, err := Validate(validDraft())
	require.NoError(t, err)
	req.RawAmount().SetInt64(1)
	assert.Equal(t, uint64(1_000_000_000_000), req.RawAmountUint64())
}

func TestValidateImage(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		draft := validDraft()
		draft.Image = Image{}
		_, err := Validate(draft)
		requireViolation(t, err, CodeImageMissing)
	})
	t.Run("too large", func(t *testing.T) {
		draft := validDraft()
		draft.Image.Data = append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, MaxImageBytes)...)
		_, err := Validate(draft)
		requireViolation(t, err, CodeImageTooLarge)
	})
	t.Run("exactly at limit", func(t *testing.T) {
		draft := validDraft()
		data := make([]byte, MaxImageBytes)
		copy(data, pngHeader)
		draft.Image.Data = data
		_, err := Validate(draft)
		require.NoError(t, err)
	})
	t.Run("content type sniffed", func(t *testing.T) {
		draft := validDraft()
		draft.Image.ContentType = ""
		draft.Image.FileName = ""
		req, err := Validate(draft)
		require.NoError(t, err)
		assert.Equal(t, "image/png", req.Image.ContentType)
		assert.Equal(t, "image", req.Image.FileName)
	})
	t.Run("not an image", func(t *testing.T) {
		draft := validDraft()
		draft.Image = Image{Data: []byte("hello world"), ContentType: "text/plain"}
		_, err := Validate(draft)
		requireViolation(t, err, CodeImageUnsupported)
	})
}

func TestValidateNameAndSymbol(t *testing.T) {
	draft := validDraft()
	draft.Name = "   "
	draft.Symbol = "WAYTOOLONGSYMBOL"
	_, err := Validate(draft)
	requireViolation(t, err, CodeInvalidName)
	requireViolation(t, err, CodeInvalidSymbol)
}

func TestValidateCollectsAllViolations(t *testing.T) {
	_, err := Validate(Draft{Decimals: "12"})
	ve, ok := AsValidationError(err)
	require.True(t, ok)
	for _, code := range []Code{CodeInvalidName, CodeInvalidSymbol, CodeInvalidDecimals, CodeInvalidSupply, CodeImageMissing} {
		assert.True(t, ve.Has(code), code)
	}
}

func TestValidateSocials(t *testing.T) {
	draft := validDraft()
	draft.Socials = SocialLinks{Website: "https://example.com", Twitter: "@mat"}

	req, err := Validate(draft)
	require.NoError(t, err)
	assert.Nil(t, req.Socials, "socials are dropped unless opted in")

	draft.IncludeSocials = true
	req, err = Validate(draft)
	require.NoError(t, err)
	require.NotNil(t, req.Socials)
	assert.Equal(t, "@mat", req.Socials.Twitter)

	draft.Socials.Website = "not a url"
	_, err = Validate(draft)
	requireViolation(t, err, CodeInvalidSocialLink)
}
