package stats

import (
	"sort"
	"time"

	"github.com/tcardoso/licensedesk/internal/domain"
)

// DefaultExpiringLimit caps the expiring-licenses dashboard widget
const DefaultExpiringLimit = 8

// ExpiringEntry is one row of the expiring-licenses widget
type ExpiringEntry struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Category       domain.LicenseType `json:"category"`
	ExpirationDate string             `json:"expiration_date"`
	DaysLeft       int                `json:"days_left"`
	Expired        bool               `json:"expired"`
}

// Expiring merges pools and legacy licenses into a single list of
// upcoming expirations: everything expiring at or before now+windowDays,
// already-expired entries included, ascending by date, truncated to limit.
func Expiring(s Snapshot, now time.Time, windowDays, limit int) []ExpiringEntry {
	cutoff := domain.Day(now).AddDate(0, 0, windowDays)

	type candidate struct {
		entry ExpiringEntry
		date  time.Time
	}
	var candidates []candidate

	add := func(id, name string, category domain.LicenseType, exp *time.Time) {
		if exp == nil {
			return
		}
		d := domain.Day(*exp)
		if d.After(cutoff) {
			return
		}
		candidates = append(candidates, candidate{
			entry: ExpiringEntry{
				ID:             id,
				Name:           name,
				Category:       category,
				ExpirationDate: domain.FormatDate(d),
				DaysLeft:       domain.DaysUntil(d, now),
				Expired:        domain.IsExpired(exp, now),
			},
			date: d,
		})
	}

	for _, p := range s.M365Pools {
		add(p.ID, p.LicenseType, domain.TypeMicrosoft365, p.ExpirationDate)
	}
	for _, p := range s.Pools {
		add(p.ID, p.Name, p.Type, p.ExpirationDate)
	}
	for _, l := range s.Legacy {
		add(l.ID, l.Name, l.Type(), l.ExpirationDate)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].date.Before(candidates[j].date)
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]ExpiringEntry, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.entry)
	}
	return out
}
