package token

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestValidateAddress(t *testing.T) {
	assert.NoError(t, ValidateAddress("11111111111111111111111111111111"))
	assert.NoError(t, ValidateAddress("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"))

	for _, bad := range []string{"", "   ", "0OIl", "abc", "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DATokenkeg"} {
		err := ValidateAddress(bad)
		assert.Error(t, err, bad)
		assert.True(t, errors.Is(err, ErrInvalidAddress), bad)
		assert.False(t, IsValidAddress(bad))
	}
}
