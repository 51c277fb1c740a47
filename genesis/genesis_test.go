// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/tokengrant/builtin"
	"github.com/vechain/tokengrant/lvldb"
	"github.com/vechain/tokengrant/state"
	"github.com/vechain/tokengrant/thor"
)

const doc = `
name: testnet
launchTime: 1700000000
stakingAdmin: "0x7567d83b7b8d80addcb281a71d54fc7b3364ffed"
accounts:
  - address: "0xd3ae78222beadb038203be21ed5ce7c9b1bff602"
    balance: "1000000000000000000000"
  - address: "0x733b7269443c70de16bbf9b0615307884bcc5636"
    balance: "0x3e8"
`

func newState(t *testing.T) *state.State {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st, err := state.New(db, 16)
	require.NoError(t, err)
	return st
}

func TestParse(t *testing.T) {
	gen, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "testnet", gen.Name())
	assert.Equal(t, uint64(1700000000), gen.LaunchTime())
	assert.False(t, gen.ID().IsZero())

	st := newState(t)
	require.NoError(t, gen.Build(st))

	token := builtin.Token.WithState(st)
	bal, err := token.BalanceOf(thor.MustParseAddress("0x733b7269443c70de16bbf9b0615307884bcc5636"))
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(1000), bal)

	supply, err := token.TotalSupply()
	require.NoError(t, err)
	want, _ := uint256.FromDecimal("1000000000000000001000")
	assert.Equal(t, want, supply)

	admin, err := builtin.Staking.WithState(st).Admin()
	require.NoError(t, err)
	assert.Equal(t, thor.MustParseAddress("0x7567d83b7b8d80addcb281a71d54fc7b3364ffed"), admin)
}

func TestID(t *testing.T) {
	a, err := Parse([]byte(doc))
	require.NoError(t, err)
	b, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, a.ID(), b.ID())

	c, err := Parse([]byte(doc + "\n# comment only\n"))
	require.NoError(t, err)
	assert.Equal(t, a.ID(), c.ID())

	assert.NotEqual(t, a.ID(), NewDevnet().ID())
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"no name", "launchTime: 1\n"},
		{"bad balance", "name: x\naccounts:\n  - address: \"0xd3ae78222beadb038203be21ed5ce7c9b1bff602\"\n    balance: abc\n"},
		{"zero balance", "name: x\naccounts:\n  - address: \"0xd3ae78222beadb038203be21ed5ce7c9b1bff602\"\n    balance: 0\n"},
		{"missing balance", "name: x\naccounts:\n  - address: \"0xd3ae78222beadb038203be21ed5ce7c9b1bff602\"\n"},
		{"bad address", "name: x\naccounts:\n  - address: \"0x12\"\n    balance: 1\n"},
		{"duplicated", "name: x\naccounts:\n  - address: \"0xd3ae78222beadb038203be21ed5ce7c9b1bff602\"\n    balance: 1\n  - address: \"0xd3ae78222beadb038203be21ed5ce7c9b1bff602\"\n    balance: 2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	gen, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "testnet", gen.Name())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDevnet(t *testing.T) {
	accs := DevAccounts()
	require.Len(t, accs, 10)
	assert.Equal(t, thor.MustParseAddress("0xf077b491b355e64048ce21e3a6fc4751eeea77fa"), accs[0].Address)

	gen := NewDevnet()
	assert.Equal(t, "devnet", gen.Name())

	st := newState(t)
	require.NoError(t, gen.Build(st))

	want := new(uint256.Int).Mul(uint256.NewInt(1e9), uint256.NewInt(1e18))
	for _, a := range accs {
		bal, err := builtin.Token.WithState(st).BalanceOf(a.Address)
		require.NoError(t, err)
		assert.Equal(t, want, bal)
	}
	admin, err := builtin.Staking.WithState(st).Admin()
	require.NoError(t, err)
	assert.Equal(t, accs[0].Address, admin)
}
