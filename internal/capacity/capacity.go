// Package capacity keeps pool seat counts truthful. Counts are derived from
// the referencing records on every call instead of being stored, so they can
// never drift from the data they describe.
package capacity

import (
	"fmt"

	"github.com/tcardoso/licensedesk/internal/domain"
)

// Policy selects which references consume a pool seat
type Policy string

const (
	// CountActiveOnly counts only references with IsActive set; deactivating
	// a user or assignment frees its seat. This is the default.
	CountActiveOnly Policy = "active-only"

	// CountAll counts every reference regardless of its active flag; a seat
	// stays consumed until the reference is removed.
	CountAll Policy = "all"
)

// ParsePolicy validates a policy name from configuration
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case CountActiveOnly, CountAll:
		return Policy(s), nil
	case "":
		return CountActiveOnly, nil
	default:
		return "", fmt.Errorf("unknown counting policy %q", s)
	}
}

// Usage is the derived seat accounting of one pool. Assigned + Available
// always equals the pool's total capacity; Available goes negative when a
// pool is over-assigned and is never clamped.
type Usage struct {
	Assigned  int
	Available int
}

func usage(total, assigned int) Usage {
	return Usage{Assigned: assigned, Available: total - assigned}
}

// ForPool derives the seat usage of a generic pool from its assignments
func ForPool(pool domain.LicensePool, assignments []domain.LicenseAssignment, policy Policy) Usage {
	assigned := 0
	for _, a := range assignments {
		if a.PoolID != pool.ID {
			continue
		}
		if policy == CountActiveOnly && !a.IsActive {
			continue
		}
		assigned++
	}
	return usage(pool.TotalLicenses, assigned)
}

// ForPools derives usage for every pool in one pass, keyed by pool id
func ForPools(pools []domain.LicensePool, assignments []domain.LicenseAssignment, policy Policy) map[string]Usage {
	out := make(map[string]Usage, len(pools))
	for _, p := range pools {
		out[p.ID] = ForPool(p, assignments, policy)
	}
	return out
}

// ForM365Pool derives the seat usage of a Microsoft 365 pool from the users
// holding it. A user holds at most one seat per pool.
func ForM365Pool(pool domain.M365Pool, users []domain.M365User, policy Policy) Usage {
	assigned := 0
	for _, u := range users {
		if !u.HoldsPool(pool.ID) {
			continue
		}
		if policy == CountActiveOnly && !u.IsActive {
			continue
		}
		assigned++
	}
	return usage(pool.TotalLicenses, assigned)
}

// ForM365Pools derives usage for every Microsoft 365 pool, keyed by pool id
func ForM365Pools(pools []domain.M365Pool, users []domain.M365User, policy Policy) map[string]Usage {
	out := make(map[string]Usage, len(pools))
	for _, p := range pools {
		out[p.ID] = ForM365Pool(p, users, policy)
	}
	return out
}

// CanAssign reports whether the pool can accept a new assignment.
// Re-saving an assignment that already holds a seat in this pool is always
// allowed, so edits never get rejected for the pool being full.
func CanAssign(pool domain.LicensePool, assignments []domain.LicenseAssignment, policy Policy, excludeID string) bool {
	if excludeID != "" {
		for _, a := range assignments {
			if a.ID == excludeID && a.PoolID == pool.ID {
				return true
			}
		}
	}
	return ForPool(pool, assignments, policy).Available > 0
}

// CanAssignM365 reports whether the pool can accept one more user. A user
// that already holds the pool keeps their seat through edits.
func CanAssignM365(pool domain.M365Pool, users []domain.M365User, policy Policy, excludeUserID string) bool {
	if excludeUserID != "" {
		for _, u := range users {
			if u.ID == excludeUserID && u.HoldsPool(pool.ID) {
				return true
			}
		}
	}
	return ForM365Pool(pool, users, policy).Available > 0
}

// StripPool returns the users' assigned license sets with poolID removed.
// Used when a Microsoft 365 pool is deleted: users survive, their seat in
// the deleted pool does not. Users not holding the pool are returned
// unchanged.
func StripPool(users []domain.M365User, poolID string) []domain.M365User {
	out := make([]domain.M365User, len(users))
	for i, u := range users {
		out[i] = u
		if !u.HoldsPool(poolID) {
			continue
		}
		kept := make([]string, 0, len(u.AssignedLicenses))
		for _, id := range u.AssignedLicenses {
			if id != poolID {
				kept = append(kept, id)
			}
		}
		out[i].AssignedLicenses = kept
	}
	return out
}
