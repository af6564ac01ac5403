package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountToBalance(t *testing.T) {
	tests := []struct {
		name    string
		in      Amount
		want    Balance
		wantErr error
	}{
		{"positive", 42, 42, nil},
		{"negative", -42, 42, nil},
		{"zero", 0, 0, nil},
		{"max", math.MaxInt64, math.MaxInt64, nil},
		{"min has no magnitude", math.MinInt64, 0, ErrAmountIntoBalanceFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AmountToBalance(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOrigin(t *testing.T) {
	root := RootOrigin()
	assert.True(t, root.IsRoot())
	assert.NoError(t, root.EnsureRoot())
	_, err := root.EnsureSigned()
	assert.ErrorIs(t, err, ErrUnauthorized)

	signed := SignedOrigin("alice")
	assert.False(t, signed.IsRoot())
	assert.ErrorIs(t, signed.EnsureRoot(), ErrUnauthorized)
	who, err := signed.EnsureSigned()
	require.NoError(t, err)
	assert.Equal(t, AccountID("alice"), who)

	// An empty signer is not a valid signed origin.
	_, err = SignedOrigin("").EnsureSigned()
	assert.ErrorIs(t, err, ErrUnauthorized)
}
