package entitlements

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTier(t *testing.T) {
	assert.Equal(t, TierFree, ParseTier("free"))
	assert.Equal(t, TierBasic, ParseTier(" Basic "))
	assert.Equal(t, TierPro, ParseTier("PRO"))
	assert.Equal(t, TierEnterprise, ParseTier("enterprise"))

	// Raw provider product ids passed through on catalog drift carry no
	// entitlements.
	assert.Equal(t, TierNone, ParseTier("prod_QX2Zab12cd34ef"))
	assert.Equal(t, TierNone, ParseTier(""))
}

func TestRankOrdering(t *testing.T) {
	tiers := []Tier{TierNone, TierFree, TierBasic, TierPro, TierEnterprise}
	for i := 1; i < len(tiers); i++ {
		assert.Greater(t, Rank(tiers[i]), Rank(tiers[i-1]))
	}
}

func TestLimits(t *testing.T) {
	assert.Equal(t, -1, MaxProjects(TierEnterprise))
	assert.Equal(t, 3, MaxProjects(TierFree))
	assert.Equal(t, 0, MaxProjects(TierNone))
	assert.True(t, CanUsePrioritySupport(TierPro))
	assert.False(t, CanUsePrioritySupport(TierFree))
}
