// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tokengrant

import (
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	fuzz "github.com/google/gofuzz"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/tokengrant/test/datagen"
	"github.com/vechain/tokengrant/thor"
)

func newGrant(amount uint64, start, duration, cliffOffset uint64) *Grant {
	return &Grant{
		ID:            1,
		Amount:        uint256.NewInt(amount),
		Start:         start,
		Duration:      duration,
		Cliff:         start + cliffOffset,
		Revocable:     true,
		RevokedAmount: new(uint256.Int),
		Withdrawn:     new(uint256.Int),
	}
}

func TestUnlockedAmount(t *testing.T) {
	const start = 1000
	tests := []struct {
		name  string
		grant *Grant
		now   uint64
		want  uint64
	}{
		{"before start", newGrant(600, start, 60, 0), start - 1, 0},
		{"at start", newGrant(600, start, 60, 0), start, 0},
		{"before cliff", newGrant(600, start, 60, 10), start + 9, 0},
		{"at cliff no step", newGrant(600, start, 60, 10), start + 10, 100},
		{"linear", newGrant(600, start, 60, 10), start + 30, 300},
		{"truncates", newGrant(10, start, 3, 0), start + 1, 3},
		{"truncates near end", newGrant(10, start, 3, 0), start + 2, 6},
		{"at end", newGrant(600, start, 60, 10), start + 60, 600},
		{"after end", newGrant(600, start, 60, 10), start + 6000, 600},
		{"zero duration at start", newGrant(600, start, 0, 0), start, 600},
		{"zero duration before start", newGrant(600, start, 0, 0), start - 1, 0},
		{"cliff equals duration", newGrant(600, start, 60, 60), start + 59, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, uint256.NewInt(tt.want), UnlockedAmount(tt.grant, tt.now))
		})
	}
}

func TestUnlockedAmountFreezesAtRevocation(t *testing.T) {
	g := newGrant(600, 1000, 60, 0)
	revokedAt := uint64(1020)
	g.RevokedAt = &revokedAt

	frozen := UnlockedAmount(g, revokedAt)
	assert.Equal(t, uint256.NewInt(200), frozen)
	for _, now := range []uint64{1021, 1060, 99999} {
		assert.Equal(t, frozen, UnlockedAmount(g, now))
	}
	assert.Equal(t, uint256.NewInt(100), UnlockedAmount(g, 1010))
}

func TestUnlockedAmountWide(t *testing.T) {
	max := new(uint256.Int).SetAllOne()
	g := &Grant{Amount: max, Start: 0, Duration: 4, Cliff: 0}

	half := UnlockedAmount(g, 2)
	want := new(uint256.Int).Rsh(max, 1)
	assert.Equal(t, want, half)
	assert.Equal(t, max, UnlockedAmount(g, 4))
}

func TestUnlockedAmountMonotonic(t *testing.T) {
	g := newGrant(1_000_000_007, 500, 977, 13)
	prev := new(uint256.Int)
	for now := uint64(400); now < 1600; now++ {
		cur := UnlockedAmount(g, now)
		assert.False(t, cur.Lt(prev), "unlocked decreased at %d", now)
		assert.False(t, cur.Gt(g.Amount), "unlocked exceeds amount at %d", now)
		prev = cur
	}
}

func TestUnlockedAmountRandomSchedules(t *testing.T) {
	for range 200 {
		amount := datagen.RandAmount(1_000_000_000).Uint64()
		start := uint64(datagen.RandIntN(1_000_000))
		duration := uint64(datagen.RandIntN(100_000) + 1)
		cliffOffset := uint64(datagen.RandIntN(int(duration) + 1))
		g := newGrant(amount, start, duration, cliffOffset)

		now := start + uint64(datagen.RandIntN(int(duration)*2))
		got := UnlockedAmount(g, now)

		switch {
		case now < start+cliffOffset:
			assert.True(t, got.IsZero(), "unlocked before cliff %+v at %d", g, now)
		case now >= start+duration:
			assert.Equal(t, g.Amount, got)
		default:
			want := new(uint256.Int).Mul(uint256.NewInt(amount), uint256.NewInt(now-start))
			want.Div(want, uint256.NewInt(duration))
			assert.Equal(t, want, got, "grant %+v at %d", g, now)
		}
	}
}

func TestGrantRLP(t *testing.T) {
	g := newGrant(100, 1000, 60, 1)
	g.GrantManager = thor.BytesToAddress([]byte("manager"))
	g.Grantee = thor.BytesToAddress([]byte("grantee"))

	data, err := rlp.EncodeToBytes(g)
	require.NoError(t, err)
	var decoded Grant
	require.NoError(t, rlp.DecodeBytes(data, &decoded))
	assert.Equal(t, g, &decoded)
	assert.False(t, decoded.IsRevoked())

	// revocation at time zero survives encoding
	zero := uint64(0)
	g.RevokedAt = &zero
	data, err = rlp.EncodeToBytes(g)
	require.NoError(t, err)
	require.NoError(t, rlp.DecodeBytes(data, &decoded))
	assert.True(t, decoded.IsRevoked())
	assert.Equal(t, uint64(0), *decoded.RevokedAt)
}

func TestGrantOutstanding(t *testing.T) {
	g := newGrant(100, 0, 10, 0)
	g.Withdrawn = uint256.NewInt(30)
	assert.Equal(t, uint256.NewInt(70), g.Outstanding())

	g.RevokedAmount = uint256.NewInt(50)
	assert.Equal(t, uint256.NewInt(20), g.Outstanding())
}

func TestGrantFuzz(t *testing.T) {
	f := fuzz.New().NilChance(0.3).Funcs(
		func(v **uint256.Int, c fuzz.Continue) {
			*v = &uint256.Int{c.Uint64(), c.Uint64(), c.Uint64(), c.Uint64() >> uint(c.Intn(64))}
		},
	)

	for range 500 {
		var g Grant
		f.Fuzz(&g)
		if g.Cliff < g.Start {
			g.Cliff = g.Start
		}

		data, err := rlp.EncodeToBytes(&g)
		require.NoError(t, err)
		var decoded Grant
		require.NoError(t, rlp.DecodeBytes(data, &decoded))
		assert.Equal(t, g, decoded)

		var now1, now2 uint64
		f.Fuzz(&now1)
		f.Fuzz(&now2)
		if now1 > now2 {
			now1, now2 = now2, now1
		}
		u1 := UnlockedAmount(&g, now1)
		u2 := UnlockedAmount(&g, now2)
		assert.False(t, u1.Gt(g.Amount), "unlocked exceeds amount: %+v at %d", g, now1)
		assert.False(t, u1.Gt(u2), "unlocked decreased: %+v from %d to %d", g, now1, now2)
	}
}
