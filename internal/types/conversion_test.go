package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestToMinorUnits(t *testing.T) {
	t.Run("converts whole major amounts", func(t *testing.T) {
		minor, err := ToMinorUnits(decimal.RequireFromString("10.00"))
		assert.NoError(t, err)
		assert.Equal(t, int64(1000), minor)
	})

	t.Run("converts cent precision amounts", func(t *testing.T) {
		minor, err := ToMinorUnits(decimal.RequireFromString("499.99"))
		assert.NoError(t, err)
		assert.Equal(t, int64(49999), minor)
	})

	t.Run("rejects sub-cent precision", func(t *testing.T) {
		_, err := ToMinorUnits(decimal.RequireFromString("12.345"))
		assert.Error(t, err)
	})

	t.Run("converts zero", func(t *testing.T) {
		minor, err := ToMinorUnits(decimal.Zero)
		assert.NoError(t, err)
		assert.Equal(t, int64(0), minor)
	})
}

func TestParseRunMode(t *testing.T) {
	t.Run("defaults to mock", func(t *testing.T) {
		mode, err := ParseRunMode("")
		assert.NoError(t, err)
		assert.Equal(t, RunModeMock, mode)
	})

	t.Run("parses case insensitively", func(t *testing.T) {
		mode, err := ParseRunMode("live")
		assert.NoError(t, err)
		assert.Equal(t, RunModeLive, mode)
	})

	t.Run("rejects unknown modes", func(t *testing.T) {
		_, err := ParseRunMode("DRY_RUN")
		assert.Error(t, err)
	})
}

func TestGatewayStatusIsPending(t *testing.T) {
	assert.True(t, GatewayStatusPendingCapture.IsPending())
	assert.True(t, GatewayStatusAuthorized.IsPending())
	assert.True(t, GatewayStatusCreated.IsPending())
	assert.False(t, GatewayStatusCaptured.IsPending())
	assert.False(t, GatewayStatusFailed.IsPending())
}
