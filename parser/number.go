package parser

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/example/jsexpr/runtime"
)

// numberValue converts a numeric literal, separators included. Prefixed
// literals go through big.Int so values past 2^64 keep their magnitude.
func numberValue(lit string) (float64, bool) {
	lit = strings.ReplaceAll(lit, "_", "")
	if len(lit) > 2 && lit[0] == '0' && strings.ContainsRune("xXoObB", rune(lit[1])) {
		n, ok := runtime.ParseBigInt(lit)
		if !ok {
			return 0, false
		}
		f, _ := new(big.Float).SetInt(n).Float64()
		return f, true
	}
	// legacy octal: 0777
	if len(lit) > 1 && lit[0] == '0' && strings.Trim(lit, "01234567") == "" {
		n, err := strconv.ParseUint(lit[1:], 8, 64)
		return float64(n), err == nil
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f, true
		}
		return 0, false
	}
	return f, true
}
