package severity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTwoTier(t *testing.T) {
	p := Default()
	a := p.Classify(4.5, "Wheat")
	assert.Equal(t, TierAlert, a.Tier)
	assert.True(t, a.Alert)
	assert.Equal(t, msgAlert, a.Message)

	a = p.Classify(DefaultAlertThreshold, "Wheat")
	assert.Equal(t, TierHealthy, a.Tier, "threshold itself is healthy")
	assert.False(t, a.Alert)

	assert.Equal(t, TierAlert, p.Classify(24.999, "").Tier)
}

func TestThreeTier(t *testing.T) {
	p := ThreeTier{Critical: 20, Warning: 30}
	cases := []struct {
		yield float64
		tier  Tier
		alert bool
	}{
		{19.99, TierAlert, true},
		{20, TierWarning, false},
		{29.99, TierWarning, false},
		{30, TierHealthy, false},
		{55, TierHealthy, false},
	}
	for _, c := range cases {
		a := p.Classify(c.yield, "Rice")
		assert.Equal(t, c.tier, a.Tier, "yield %.2f", c.yield)
		assert.Equal(t, c.alert, a.Alert, "yield %.2f", c.yield)
		assert.Contains(t, a.Message, "Rice")
	}
	assert.Contains(t, p.Classify(40, "").Message, "Crop")
}

func TestDynamic(t *testing.T) {
	p := Dynamic{Fraction: DefaultAlertFraction, Reference: DefaultReferenceYield}
	th := p.Threshold()
	assert.InDelta(t, 20.5068, th, 1e-4)
	assert.Equal(t, TierAlert, p.Classify(th-0.01, "").Tier)
	assert.Equal(t, TierHealthy, p.Classify(th, "").Tier)
}

func TestFromConfig(t *testing.T) {
	p, err := FromConfig(Config{})
	require.NoError(t, err)
	assert.Equal(t, TwoTier{Threshold: 25}, p)

	p, err = FromConfig(Config{Policy: "Three-Tier", CriticalThreshold: 18})
	require.NoError(t, err)
	assert.Equal(t, ThreeTier{Critical: 18, Warning: 30}, p)

	p, err = FromConfig(Config{Policy: "dynamic"})
	require.NoError(t, err)
	assert.Equal(t, PolicyDynamic, p.Name())

	_, err = FromConfig(Config{Policy: "three-tier", CriticalThreshold: 40})
	assert.Error(t, err)
	_, err = FromConfig(Config{Policy: "five-tier"})
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("policy: three-tier\nwarning_threshold: 28\n"), 0o644))
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Config{Policy: "three-tier", WarningThreshold: 28}, cfg)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	p, err := Resolve("", "")
	require.NoError(t, err)
	assert.Equal(t, Default(), p)

	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("policy: two-tier\nwarning_threshold: 28\n"), 0o600))

	p, err = Resolve("three-tier", path)
	require.NoError(t, err)
	assert.Equal(t, ThreeTier{Critical: DefaultCriticalThreshold, Warning: 28}, p)

	_, err = Resolve("", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
