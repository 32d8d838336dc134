package token

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var ErrUnknownToken = errors.New("unknown token")

// Symbol is one of the three supported tokens.
type Symbol string

const (
	Native    Symbol = "CELO"
	StableUSD Symbol = "cUSD"
	StableEUR Symbol = "cEUR"
)

var All = []Symbol{Native, StableUSD, StableEUR}

func Parse(raw string) (Symbol, error) {
	trimmed := strings.TrimSpace(raw)
	for _, s := range All {
		if strings.EqualFold(trimmed, string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownToken, raw)
}

func (s Symbol) IsNative() bool { return s == Native }

// Addresses maps symbols to on-ledger contracts. The native coin trades
// through its wrapped form.
type Addresses struct {
	WrappedNative common.Address
	StableUSD     common.Address
	StableEUR     common.Address
}

func (a Addresses) Of(s Symbol) (common.Address, error) {
	switch s {
	case Native:
		return a.WrappedNative, nil
	case StableUSD:
		return a.StableUSD, nil
	case StableEUR:
		return a.StableEUR, nil
	default:
		return common.Address{}, fmt.Errorf("%w: %q", ErrUnknownToken, s)
	}
}
