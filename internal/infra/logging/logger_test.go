package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	l, err := New("debug", "console")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = New("warn", "json")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.ErrorLevel))
}

func TestNewRejectsUnknown(t *testing.T) {
	_, err := New("loud", "json")
	assert.Error(t, err)
	_, err = New("info", "xml")
	assert.Error(t, err)

	assert.NotNil(t, MustNew("loud", "xml"))
}

func TestMask(t *testing.T) {
	assert.Equal(t, "short", Mask(" short "))
	assert.Equal(t, "7xKX***gAsU", Mask("7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"))
}
