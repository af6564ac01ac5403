package ledger

import (
	"math/bits"

	"github.com/setlabs/serpd/internal/core/types"
)

// Checked balance arithmetic. Overflow and underflow surface as
// explicit errors; nothing wraps.

func checkedAdd(a, b types.Balance) (types.Balance, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, types.ErrSupplyOverflow
	}
	return sum, nil
}

func checkedSub(a, b types.Balance) (types.Balance, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, types.ErrSupplyUnderflow
	}
	return diff, nil
}

func minBal(a, b types.Balance) types.Balance {
	if a < b {
		return a
	}
	return b
}
