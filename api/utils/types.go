// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/tokengrant/thor"
)

// Amount encodes a token quantity as a hex string, decoding hex or decimal.
func Amount(v *uint256.Int) *math.HexOrDecimal256 {
	if v == nil {
		return nil
	}
	return (*math.HexOrDecimal256)(v.ToBig())
}

// ParseAmount converts a decoded quantity, failing on missing, negative or too wide values.
func ParseAmount(v *math.HexOrDecimal256, name string) (*uint256.Int, error) {
	if v == nil {
		return nil, BadRequest(errors.Errorf("%s: required", name))
	}
	b := (*big.Int)(v)
	if b.Sign() < 0 {
		return nil, BadRequest(errors.Errorf("%s: negative", name))
	}
	amount, overflow := uint256.FromBig(b)
	if overflow {
		return nil, BadRequest(errors.Errorf("%s: exceeds 256 bits", name))
	}
	return amount, nil
}

// AddressVar parses the named path variable as an address.
func AddressVar(req *http.Request, name string) (thor.Address, error) {
	addr, err := thor.ParseAddress(mux.Vars(req)[name])
	if err != nil {
		return thor.Address{}, BadRequest(errors.WithMessage(err, name))
	}
	return addr, nil
}

// Uint64Var parses the named path variable as a decimal uint64.
func Uint64Var(req *http.Request, name string) (uint64, error) {
	n, err := strconv.ParseUint(mux.Vars(req)[name], 10, 64)
	if err != nil {
		return 0, BadRequest(errors.WithMessage(err, name))
	}
	return n, nil
}
