// Package classify derives a player's rank and online status from a profile.
package classify

import (
	"strings"
	"time"

	"github.com/vietddude/rankcheck/internal/core/domain"
)

// monthlyRemap translates subscription rank ids into their display ranks.
var monthlyRemap = map[string]string{
	"SUPERSTAR": "MVP_PLUS_PLUS",
}

// ResolveRank picks the rank in priority order: explicit rank, monthly
// package rank (remapped), new package rank, legacy package rank, None.
func ResolveRank(p *domain.PlayerProfile) domain.Category {
	if p == nil {
		return domain.RankNone
	}
	if r := strings.TrimSpace(p.Rank); r != "" {
		return domain.Category(r)
	}
	if r := strings.TrimSpace(p.MonthlyPackageRank); r != "" {
		if mapped, ok := monthlyRemap[r]; ok {
			r = mapped
		}
		return domain.Category(r)
	}
	if r := strings.TrimSpace(p.NewPackageRank); r != "" {
		return domain.Category(r)
	}
	if r := strings.TrimSpace(p.PackageRank); r != "" {
		return domain.Category(r)
	}
	return domain.RankNone
}

// IsOnline is true only when both timestamps are present and the last login
// is after the last logout.
func IsOnline(p *domain.PlayerProfile) bool {
	if p == nil || p.LastLogin == 0 || p.LastLogout == 0 {
		return false
	}
	return p.LastLogin > p.LastLogout
}

// LastLogin converts the millisecond login timestamp, zero when absent.
func LastLogin(p *domain.PlayerProfile) time.Time {
	if p == nil || p.LastLogin == 0 {
		return time.Time{}
	}
	return time.UnixMilli(p.LastLogin)
}

// FormatTimestamp renders a login time for the console, "Never" when unset.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "Never"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
