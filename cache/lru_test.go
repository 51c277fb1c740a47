// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLRU(t *testing.T) {
	_, err := NewLRU(0)
	assert.Error(t, err)

	c, err := NewLRU(2)
	assert.NoError(t, err)

	loads := 0
	loader := func(key any) (any, error) {
		loads++
		return key.(string) + "-v", nil
	}

	v, err := c.GetOrLoad("a", loader)
	assert.NoError(t, err)
	assert.Equal(t, "a-v", v)

	v, err = c.GetOrLoad("a", loader)
	assert.NoError(t, err)
	assert.Equal(t, "a-v", v)
	assert.Equal(t, 1, loads)

	c.GetOrLoad("b", loader)
	c.GetOrLoad("c", loader)
	_, ok := c.Get("a")
	assert.False(t, ok, "a should be evicted")

	_, err = c.GetOrLoad("d", func(any) (any, error) { return nil, errors.New("load failed") })
	assert.Error(t, err)
	_, ok = c.Get("d")
	assert.False(t, ok)

	hit, miss := c.Stats()
	assert.Equal(t, int64(1), hit)
	assert.Equal(t, int64(4), miss)
}
