// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"0x7567d83b7b8d80addcb281a71d54fc7b3364ffed", false},
		{"7567d83b7b8d80addcb281a71d54fc7b3364ffed", false},
		{"0X7567d83b7b8d80addcb281a71d54fc7b3364ffed", false},
		{"1x7567d83b7b8d80addcb281a71d54fc7b3364ffed", true},
		{"0x7567d83b", true},
		{"0xzz67d83b7b8d80addcb281a71d54fc7b3364ffed", true},
	}
	for _, tt := range tests {
		addr, err := ParseAddress(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, "0x7567d83b7b8d80addcb281a71d54fc7b3364ffed", addr.String())
	}
}

func TestAddressJSON(t *testing.T) {
	addr := BytesToAddress([]byte("grantee"))

	data, err := json.Marshal(&addr)
	assert.NoError(t, err)
	assert.Equal(t, `"`+addr.String()+`"`, string(data))

	var decoded Address
	assert.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, addr, decoded)

	assert.Error(t, json.Unmarshal([]byte(`"0x01"`), &decoded))
	assert.Error(t, json.Unmarshal([]byte(`1`), &decoded))
}

func TestAddressText(t *testing.T) {
	addr := BytesToAddress([]byte("manager"))
	text, err := addr.MarshalText()
	assert.NoError(t, err)

	var decoded Address
	assert.NoError(t, decoded.UnmarshalText(text))
	assert.Equal(t, addr, decoded)
	assert.False(t, decoded.IsZero())
	assert.True(t, Address{}.IsZero())
}

func TestBlake2b(t *testing.T) {
	a := Blake2b([]byte("a"), []byte("b"))
	b := Blake2b([]byte("ab"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, Bytes32{}, a)
}
