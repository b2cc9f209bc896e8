package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectStrategy(t *testing.T) {
	tests := []struct {
		authEnabled     bool
		emulatorEnabled bool
		want            StrategyKind
	}{
		{false, false, StrategyDisabled},
		{false, true, StrategyDisabled},
		{true, true, StrategyEmulated},
		{true, false, StrategyLive},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			for i := 0; i < 3; i++ {
				assert.Equal(t, tt.want, SelectStrategy(tt.authEnabled, tt.emulatorEnabled))
			}
		})
	}
}

func TestStrategyKind_String(t *testing.T) {
	assert.Equal(t, "disabled", StrategyDisabled.String())
	assert.Equal(t, "emulated", StrategyEmulated.String())
	assert.Equal(t, "live", StrategyLive.String())
	assert.Equal(t, "disabled", StrategyKind(42).String())
}
