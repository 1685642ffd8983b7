package entitlements

import "strings"

// Tier is the closed set of service levels an account can hold. Provider
// product identifiers are mapped onto these at configuration time; an
// unmapped identifier is stored as-is and treated as TierNone here.
type Tier string

const (
	TierNone       Tier = ""
	TierFree       Tier = "free"
	TierBasic      Tier = "basic"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

// ParseTier normalizes a stored plan value. Unknown values (including raw
// provider product ids passed through on catalog drift) yield TierNone.
func ParseTier(s string) Tier {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(TierFree):
		return TierFree
	case string(TierBasic):
		return TierBasic
	case string(TierPro):
		return TierPro
	case string(TierEnterprise):
		return TierEnterprise
	default:
		return TierNone
	}
}

func Rank(t Tier) int {
	switch t {
	case TierEnterprise:
		return 4
	case TierPro:
		return 3
	case TierBasic:
		return 2
	case TierFree:
		return 1
	default:
		return 0
	}
}

// MaxProjects returns how many projects a tier may create. 0 means none,
// -1 means unlimited.
func MaxProjects(t Tier) int {
	switch t {
	case TierEnterprise:
		return -1
	case TierPro:
		return 50
	case TierBasic:
		return 10
	case TierFree:
		return 3
	default:
		return 0
	}
}

// APIRequestsPerMinute returns the API rate budget for a tier.
func APIRequestsPerMinute(t Tier) int {
	switch t {
	case TierEnterprise:
		return 600
	case TierPro:
		return 240
	case TierBasic:
		return 120
	case TierFree:
		return 30
	default:
		return 10
	}
}

// CanUsePrioritySupport reports whether the tier includes priority support.
func CanUsePrioritySupport(t Tier) bool {
	return t == TierPro || t == TierEnterprise
}
