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

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%,junk=abc%")

	assert.True(t, m.Enabled("always", 1))
	assert.False(t, m.Enabled("never", 1))
	assert.False(t, m.Enabled("junk", 1))

	first := m.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Enabled("canary", 42), "rollout evaluation must be deterministic per user")
	}
	assert.False(t, m.Enabled("canary", 0), "percentage rollout requires a user")
}

func TestDefaults(t *testing.T) {
	m := NewManager("")
	assert.True(t, m.Enabled(ReportAutoHide, 0))
	assert.True(t, m.Enabled(FeedOffsetPages, 0))

	m = NewManager("REPORT_AUTO_HIDE=off")
	assert.False(t, m.Enabled(ReportAutoHide, 7))
	assert.True(t, m.Enabled(ViewerCapabilities, 7))

	var nilManager *Manager
	assert.False(t, nilManager.Enabled(ReportAutoHide, 1))
}

func TestParseAndSnapshot(t *testing.T) {
	m := NewManager(" bad ,x=on, y = 20% ,z=off ")

	raw := m.Raw()
	assert.Len(t, raw, 3+len(Defaults))
	assert.Equal(t, "on", raw["x"])
	assert.Equal(t, "20%", raw["y"])
	assert.Equal(t, "off", raw["z"])

	snap := m.Snapshot(123)
	assert.Len(t, snap, 3+len(Defaults))
	assert.True(t, snap["x"])
	assert.False(t, snap["z"])
}
