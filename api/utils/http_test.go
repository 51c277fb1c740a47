// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/holiman/uint256"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/tokengrant/builtin/reverts"
	"github.com/vechain/tokengrant/thor"
)

func TestWrapHandlerFunc(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"ok", nil, http.StatusOK, ""},
		{"bad request", BadRequest(errors.New("bad")), http.StatusBadRequest, "bad"},
		{"no cause", HTTPError(nil, http.StatusTeapot), http.StatusTeapot, ""},
		{"revert", reverts.New("invalid"), http.StatusBadRequest, "invalid"},
		{"not found", pkgerrors.WithMessage(reverts.NewNotFound("missing"), "get"), http.StatusNotFound, "get: missing"},
		{"unauthorized", reverts.NewUnauthorized("denied"), http.StatusForbidden, "denied"},
		{"internal", errors.New("disk"), http.StatusInternalServerError, "disk"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			WrapHandlerFunc(func(http.ResponseWriter, *http.Request) error { return tt.err })(rr, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.body, strings.TrimSpace(rr.Body.String()))
		})
	}
}

func TestParseJSON(t *testing.T) {
	var v struct {
		A int `json:"a"`
	}
	require.NoError(t, ParseJSON(strings.NewReader(`{"a":1}`), &v))
	assert.Equal(t, 1, v.A)
	assert.Error(t, ParseJSON(strings.NewReader(`{"b":1}`), &v))
}

func TestParseAmount(t *testing.T) {
	v, err := ParseAmount((*math.HexOrDecimal256)(big.NewInt(42)), "amount")
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(42), v)

	_, err = ParseAmount(nil, "amount")
	assert.ErrorContains(t, err, "amount: required")
	_, err = ParseAmount((*math.HexOrDecimal256)(big.NewInt(-1)), "amount")
	assert.ErrorContains(t, err, "negative")
	_, err = ParseAmount((*math.HexOrDecimal256)(new(big.Int).Lsh(big.NewInt(1), 256)), "amount")
	assert.ErrorContains(t, err, "256 bits")

	assert.Nil(t, Amount(nil))
	text, err := Amount(uint256.NewInt(42)).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "0x2a", string(text))
}

func TestPathVars(t *testing.T) {
	addr := thor.BytesToAddress([]byte("addr"))
	router := mux.NewRouter()
	router.Path("/{address}/{id}").HandlerFunc(WrapHandlerFunc(func(w http.ResponseWriter, req *http.Request) error {
		a, err := AddressVar(req, "address")
		if err != nil {
			return err
		}
		id, err := Uint64Var(req, "id")
		if err != nil {
			return err
		}
		return WriteJSON(w, M{"address": a, "id": id})
	}))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/"+addr.String()+"/7", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"address":"`+addr.String()+`","id":7}`, rr.Body.String())

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/0x12/7", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/"+addr.String()+"/x", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
