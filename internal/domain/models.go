package domain

import (
	"fmt"
	"time"
)

// LicenseType identifies a license category
type LicenseType string

const (
	TypeMicrosoft365 LicenseType = "microsoft365"
	TypeSophos       LicenseType = "sophos"
	TypeServer       LicenseType = "server"
	TypeWindows      LicenseType = "windows"
)

// PoolTypes are the categories organized as generic pool/assignment pairs.
// Microsoft 365 has its own pool and user entities.
var PoolTypes = []LicenseType{TypeSophos, TypeServer, TypeWindows}

// IsPoolType reports whether t is a valid generic pool category
func IsPoolType(t LicenseType) bool {
	for _, pt := range PoolTypes {
		if t == pt {
			return true
		}
	}
	return false
}

// LicensePool represents a purchased batch of licenses of one type (sophos, server, windows)
type LicensePool struct {
	ID             string      // Unique identifier
	Type           LicenseType // sophos, server or windows
	Name           string      // Pool name
	TotalLicenses  int         // Authoritative seat capacity, never negative
	Cost           *float64    // Per-seat cost (optional)
	ExpirationDate *time.Time  // Contract expiration, date only (optional)
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// M365Pool represents a purchased batch of Microsoft 365 licenses of one plan
type M365Pool struct {
	ID             string     // Unique identifier
	LicenseType    string     // Plan name, e.g. "Exchange Online (Plan 1)"
	TotalLicenses  int        // Authoritative seat capacity, never negative
	Cost           *float64   // Per-seat cost (optional)
	ExpirationDate *time.Time // Contract expiration, date only (optional)
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// M365User is a person holding zero or more Microsoft 365 pool seats
type M365User struct {
	ID               string
	Name             string
	Email            string
	AssignedLicenses []string // M365 pool IDs held by this user
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HoldsPool reports whether the user holds a seat from the given pool
func (u M365User) HoldsPool(poolID string) bool {
	for _, id := range u.AssignedLicenses {
		if id == poolID {
			return true
		}
	}
	return false
}

// LicenseAssignment binds one seat from a generic pool to a device or server.
// DeviceName is set for device-based types (sophos, windows), ServerName for
// the server type; the two are mutually exclusive.
type LicenseAssignment struct {
	ID           string
	Type         LicenseType // Matches the pool's type
	PoolID       string      // Pool this seat belongs to
	DeviceName   string
	ServerName   string
	UserEmail    string
	SerialNumber string
	LicenseKey   string
	IsActive     bool
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate checks assignment field constraints before persistence
func (a LicenseAssignment) Validate() error {
	if !IsPoolType(a.Type) {
		return fmt.Errorf("invalid assignment type %q", a.Type)
	}
	if a.PoolID == "" {
		return fmt.Errorf("assignment pool ID is required")
	}
	switch a.Type {
	case TypeServer:
		if a.ServerName == "" {
			return fmt.Errorf("server name is required for server assignments")
		}
		if a.DeviceName != "" {
			return fmt.Errorf("device name is not valid for server assignments")
		}
	default:
		if a.DeviceName == "" {
			return fmt.Errorf("device name is required for %s assignments", a.Type)
		}
		if a.ServerName != "" {
			return fmt.Errorf("server name is not valid for %s assignments", a.Type)
		}
	}
	return nil
}

// LegacyLicense is a standalone license record not backed by a pool.
// The common header carries the fields shared by every category; Details
// holds exactly one category-specific payload.
type LegacyLicense struct {
	ID             string
	Name           string
	IsActive       bool
	ExpirationDate *time.Time // date only (optional)
	Cost           *float64   // flat cost (optional)
	Notes          string
	Details        LicenseDetails
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Type returns the license category carried by the details payload
func (l LegacyLicense) Type() LicenseType {
	if l.Details == nil {
		return ""
	}
	return l.Details.LicenseType()
}

// LicenseDetails is the category-specific payload of a legacy license.
// One implementation exists per license type so invalid field combinations
// cannot be constructed.
type LicenseDetails interface {
	LicenseType() LicenseType
}

// M365Details carries the Microsoft 365 specific fields of a legacy license
type M365Details struct {
	PlanType     string // e.g. "Business Standard"
	AssignedUser string
	UserEmail    string
}

func (M365Details) LicenseType() LicenseType { return TypeMicrosoft365 }

// SophosDetails carries the Sophos specific fields of a legacy license
type SophosDetails struct {
	ProductType  string // "Central" or "Firewall"
	DeviceCount  int
	SerialNumber string
}

func (SophosDetails) LicenseType() LicenseType { return TypeSophos }

// ServerDetails carries the server-product fields of a legacy license
type ServerDetails struct {
	ProductName string
	Version     string
	ServerName  string
	LicenseKey  string
}

func (ServerDetails) LicenseType() LicenseType { return TypeServer }

// WindowsDetails carries the Windows specific fields of a legacy license
type WindowsDetails struct {
	WindowsType string // "Server" or "Client"
	Version     string
	DeviceName  string
	LicenseKey  string
}

func (WindowsDetails) LicenseType() LicenseType { return TypeWindows }

// LicenseStats summarizes one license category for the dashboard.
// Derived on demand, never persisted.
type LicenseStats struct {
	Total        int
	Active       int
	Expired      int
	ExpiringSoon int
}
