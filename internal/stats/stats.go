// Package stats reduces the license collections into the per-category
// figures and roll-ups shown on the dashboard. Everything here is a pure
// function of a snapshot and a clock; empty collections yield empty results.
package stats

import (
	"time"

	"github.com/tcardoso/licensedesk/internal/domain"
)

// Snapshot is the full working set the aggregations reduce over
type Snapshot struct {
	Pools       []domain.LicensePool
	Assignments []domain.LicenseAssignment
	M365Pools   []domain.M365Pool
	M365Users   []domain.M365User
	Legacy      []domain.LegacyLicense
}

// Categories lists every license category in dashboard display order
var Categories = []domain.LicenseType{
	domain.TypeMicrosoft365,
	domain.TypeSophos,
	domain.TypeServer,
	domain.TypeWindows,
}

// Compute reduces the snapshot into one LicenseStats per category.
//
// For Microsoft 365: total sums pool capacities; active sums, across active
// users holding at least one license, the number of licenses each holds (a
// multi-license user contributes multiple units); expired sums the whole
// capacity of expired pools, since a pool-level expiration invalidates
// every seat in it. The other categories count pool capacity plus standalone
// legacy records of the matching type.
func Compute(s Snapshot, now time.Time, windowDays int) map[domain.LicenseType]domain.LicenseStats {
	out := make(map[domain.LicenseType]domain.LicenseStats, len(Categories))
	out[domain.TypeMicrosoft365] = computeM365(s, now, windowDays)
	for _, t := range domain.PoolTypes {
		out[t] = computePooled(s, t, now, windowDays)
	}
	return out
}

func computeM365(s Snapshot, now time.Time, windowDays int) domain.LicenseStats {
	var st domain.LicenseStats
	for _, p := range s.M365Pools {
		st.Total += p.TotalLicenses
		if domain.IsExpired(p.ExpirationDate, now) {
			st.Expired += p.TotalLicenses
		}
		if domain.IsExpiringSoon(p.ExpirationDate, now, windowDays) {
			st.ExpiringSoon++
		}
	}
	for _, u := range s.M365Users {
		if u.IsActive && len(u.AssignedLicenses) > 0 {
			st.Active += len(u.AssignedLicenses)
		}
	}
	return st
}

func computePooled(s Snapshot, t domain.LicenseType, now time.Time, windowDays int) domain.LicenseStats {
	var st domain.LicenseStats
	for _, p := range s.Pools {
		if p.Type != t {
			continue
		}
		st.Total += p.TotalLicenses
		if domain.IsExpired(p.ExpirationDate, now) {
			st.Expired += p.TotalLicenses
		}
		if domain.IsExpiringSoon(p.ExpirationDate, now, windowDays) {
			st.ExpiringSoon++
		}
	}
	for _, a := range s.Assignments {
		if a.Type == t && a.IsActive {
			st.Active++
		}
	}
	for _, l := range s.Legacy {
		if l.Type() != t {
			continue
		}
		st.Total++
		if l.IsActive {
			st.Active++
		}
		if domain.IsExpired(l.ExpirationDate, now) {
			st.Expired++
		}
		if domain.IsExpiringSoon(l.ExpirationDate, now, windowDays) {
			st.ExpiringSoon++
		}
	}
	return st
}
