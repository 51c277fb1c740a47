// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
)

// Kind classifies a revert for callers that map it to a response.
type Kind int

const (
	// Invalid is the default kind, the request is rejected as is.
	Invalid Kind = iota
	NotFound
	Unauthorized
)

// ErrRevert is a business rule violation raised by a builtin contract.
// State changes made by the failing operation are never persisted.
type ErrRevert struct {
	message string
	kind    Kind
}

func New(message string) *ErrRevert {
	return &ErrRevert{
		message: message,
	}
}

func NewNotFound(message string) *ErrRevert {
	return &ErrRevert{message: message, kind: NotFound}
}

func NewUnauthorized(message string) *ErrRevert {
	return &ErrRevert{message: message, kind: Unauthorized}
}

func (e *ErrRevert) Error() string {
	return e.message
}

func (e *ErrRevert) Kind() Kind {
	return e.kind
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// KindOf returns the kind of the revert in err's chain.
// ok is false if err is not a revert.
func KindOf(err error) (kind Kind, ok bool) {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.kind, true
	}
	return Invalid, false
}
