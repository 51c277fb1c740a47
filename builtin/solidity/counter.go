// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"encoding/binary"
	"errors"

	"github.com/holiman/uint256"

	"github.com/vechain/tokengrant/thor"
)

var (
	errOverflow  = errors.New("uint256 overflow")
	errUnderflow = errors.New("uint256 underflow")
)

// Counter is a monotonic uint64 sequence kept in a single slot.
type Counter struct {
	u *Uint256
}

func NewCounter(context *Context, slot thor.Bytes32) *Counter {
	return &Counter{u: NewUint256(context, slot)}
}

// Current returns the last issued number, zero if none.
func (c *Counter) Current() (uint64, error) {
	v, err := c.u.Get()
	if err != nil {
		return 0, err
	}
	return v.Uint64(), nil
}

// Next issues the next number, starting at 1.
func (c *Counter) Next() (uint64, error) {
	cur, err := c.Current()
	if err != nil {
		return 0, err
	}
	next := cur + 1
	c.u.Set(new(uint256.Int).SetUint64(next))
	return next, nil
}

// Uint64 is a mapping key for numeric identifiers.
type Uint64 uint64

func (u Uint64) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(u))
	return b[:]
}
