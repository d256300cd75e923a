package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	for _, name := range []string{"a", "c", "e"} {
		assert.True(t, m.Enabled(name, 1), name)
	}
	for _, name := range []string{"b", "d", "f", "missing"} {
		assert.False(t, m.Enabled(name, 1), name)
	}
}

func TestEnabled_Rollout(t *testing.T) {
	m := NewManager("always=100%,never=0%,realtime=25%,broken=abc%")

	assert.True(t, m.Enabled("always", 0))
	assert.False(t, m.Enabled("never", 7))
	assert.False(t, m.Enabled("broken", 7))
	assert.False(t, m.Enabled(Realtime, 0), "partial rollout is off for anonymous callers")

	first := m.Enabled(Realtime, 42)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Enabled(Realtime, 42))
	}

	on := 0
	for id := uint(1); id <= 1000; id++ {
		if m.Enabled(Realtime, id) {
			on++
		}
	}
	assert.InDelta(t, 250, on, 80)
}

func TestNewManager_ParsesAndNormalizes(t *testing.T) {
	m := NewManager(" bad ,Uploads=ON, realtime = 20% ,z=off,=on,empty= ")

	assert.Equal(t, map[string]string{"uploads": "on", "realtime": "20%", "z": "off"}, m.Raw())
	assert.Equal(t, []string{"realtime", "uploads", "z"}, m.Names())
	assert.True(t, m.Enabled("UPLOADS", 0))

	snap := m.Snapshot(123)
	assert.Len(t, snap, 3)
	assert.True(t, snap[Uploads])
	assert.False(t, snap["z"])
}

func TestNilManager(t *testing.T) {
	var m *Manager
	assert.False(t, m.Enabled(Uploads, 1))
	assert.Empty(t, m.Names())
	assert.Empty(t, m.Raw())
	assert.Empty(t, m.Snapshot(1))
}

func TestParseRollout_Clamps(t *testing.T) {
	assert.Equal(t, 100, parseRollout("250%"))
	assert.Equal(t, 0, parseRollout("-5%"))
	assert.Equal(t, 40, parseRollout("40%"))
	assert.Equal(t, 0, parseRollout("maybe"))
}
