package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tcardoso/licensedesk/internal/domain"
	"github.com/tcardoso/licensedesk/internal/ids"
)

// LegacyLicenseRepository defines domain-specific operations for standalone licenses
type LegacyLicenseRepository interface {
	Repository[domain.LegacyLicense]
	FindByType(ctx context.Context, t domain.LicenseType) ([]domain.LegacyLicense, error)
}

// legacyLicenseRepositoryImpl implements LegacyLicenseRepository
type legacyLicenseRepositoryImpl struct {
	db *sql.DB
}

// NewLegacyLicenseRepository creates a new legacy license repository
func NewLegacyLicenseRepository(db *sql.DB) LegacyLicenseRepository {
	return &legacyLicenseRepositoryImpl{db: db}
}

const legacyColumns = `id, name, type, is_active, expiration_date, cost, notes,
	plan_type, assigned_user, user_email,
	product_type, device_count, serial_number,
	product_name, version, server_name, license_key,
	windows_type, device_name,
	created_at, updated_at`

// legacyRow is the flat store shape of a legacy license: one nullable column
// per category-specific field. Exactly the columns of the license's own
// category are populated; flatten and inflate round-trip every field.
type legacyRow struct {
	planType, assignedUser, userEmail   sql.NullString
	productType, serialNumber           sql.NullString
	deviceCount                         sql.NullInt64
	productName, version, serverName    sql.NullString
	licenseKey, windowsType, deviceName sql.NullString
}

func flattenDetails(d domain.LicenseDetails) (legacyRow, error) {
	var row legacyRow
	switch det := d.(type) {
	case domain.M365Details:
		row.planType = nullString(det.PlanType)
		row.assignedUser = nullString(det.AssignedUser)
		row.userEmail = nullString(det.UserEmail)
	case domain.SophosDetails:
		row.productType = nullString(det.ProductType)
		row.deviceCount = nullInt(det.DeviceCount)
		row.serialNumber = nullString(det.SerialNumber)
	case domain.ServerDetails:
		row.productName = nullString(det.ProductName)
		row.version = nullString(det.Version)
		row.serverName = nullString(det.ServerName)
		row.licenseKey = nullString(det.LicenseKey)
	case domain.WindowsDetails:
		row.windowsType = nullString(det.WindowsType)
		row.version = nullString(det.Version)
		row.deviceName = nullString(det.DeviceName)
		row.licenseKey = nullString(det.LicenseKey)
	default:
		return legacyRow{}, fmt.Errorf("%w: unsupported license details %T", ErrInvalidEntity, d)
	}
	return row, nil
}

func inflateDetails(t domain.LicenseType, row legacyRow) (domain.LicenseDetails, error) {
	switch t {
	case domain.TypeMicrosoft365:
		return domain.M365Details{
			PlanType:     fromNullString(row.planType),
			AssignedUser: fromNullString(row.assignedUser),
			UserEmail:    fromNullString(row.userEmail),
		}, nil
	case domain.TypeSophos:
		return domain.SophosDetails{
			ProductType:  fromNullString(row.productType),
			DeviceCount:  fromNullInt(row.deviceCount),
			SerialNumber: fromNullString(row.serialNumber),
		}, nil
	case domain.TypeServer:
		return domain.ServerDetails{
			ProductName: fromNullString(row.productName),
			Version:     fromNullString(row.version),
			ServerName:  fromNullString(row.serverName),
			LicenseKey:  fromNullString(row.licenseKey),
		}, nil
	case domain.TypeWindows:
		return domain.WindowsDetails{
			WindowsType: fromNullString(row.windowsType),
			Version:     fromNullString(row.version),
			DeviceName:  fromNullString(row.deviceName),
			LicenseKey:  fromNullString(row.licenseKey),
		}, nil
	default:
		return nil, fmt.Errorf("unknown license type %q", t)
	}
}

func validateLegacy(l domain.LegacyLicense) error {
	if l.Name == "" {
		return fmt.Errorf("%w: license name is required", ErrInvalidEntity)
	}
	if l.Details == nil {
		return fmt.Errorf("%w: license details are required", ErrInvalidEntity)
	}
	if l.Cost != nil && *l.Cost < 0 {
		return fmt.Errorf("%w: cost must not be negative", ErrInvalidEntity)
	}
	return nil
}

// Save creates the license when its ID is empty, updates it otherwise
func (r *legacyLicenseRepositoryImpl) Save(ctx context.Context, l domain.LegacyLicense) (domain.LegacyLicense, error) {
	if err := validateLegacy(l); err != nil {
		return domain.LegacyLicense{}, err
	}
	if l.ID == "" {
		return r.create(ctx, l)
	}
	return r.update(ctx, l)
}

func (r *legacyLicenseRepositoryImpl) create(ctx context.Context, l domain.LegacyLicense) (domain.LegacyLicense, error) {
	row, err := flattenDetails(l.Details)
	if err != nil {
		return domain.LegacyLicense{}, err
	}

	now := time.Now().UTC().Truncate(time.Second)
	l.ID = ids.New()
	l.CreatedAt = now
	l.UpdatedAt = now

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO legacy_licenses (`+legacyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.Name, string(l.Type()), l.IsActive,
		nullDate(l.ExpirationDate), nullFloat(l.Cost), l.Notes,
		row.planType, row.assignedUser, row.userEmail,
		row.productType, row.deviceCount, row.serialNumber,
		row.productName, row.version, row.serverName, row.licenseKey,
		row.windowsType, row.deviceName,
		formatTime(l.CreatedAt), formatTime(l.UpdatedAt))
	if err != nil {
		return domain.LegacyLicense{}, fmt.Errorf("failed to create legacy license: %w", err)
	}
	return l, nil
}

func (r *legacyLicenseRepositoryImpl) update(ctx context.Context, l domain.LegacyLicense) (domain.LegacyLicense, error) {
	row, err := flattenDetails(l.Details)
	if err != nil {
		return domain.LegacyLicense{}, err
	}

	l.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	result, err := r.db.ExecContext(ctx, `
		UPDATE legacy_licenses
		SET name = ?, type = ?, is_active = ?, expiration_date = ?, cost = ?, notes = ?,
		    plan_type = ?, assigned_user = ?, user_email = ?,
		    product_type = ?, device_count = ?, serial_number = ?,
		    product_name = ?, version = ?, server_name = ?, license_key = ?,
		    windows_type = ?, device_name = ?,
		    updated_at = ?
		WHERE id = ?`,
		l.Name, string(l.Type()), l.IsActive,
		nullDate(l.ExpirationDate), nullFloat(l.Cost), l.Notes,
		row.planType, row.assignedUser, row.userEmail,
		row.productType, row.deviceCount, row.serialNumber,
		row.productName, row.version, row.serverName, row.licenseKey,
		row.windowsType, row.deviceName,
		formatTime(l.UpdatedAt), l.ID)
	if err != nil {
		return domain.LegacyLicense{}, fmt.Errorf("failed to update legacy license: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return domain.LegacyLicense{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return domain.LegacyLicense{}, fmt.Errorf("legacy license %s: %w", l.ID, ErrNotFound)
	}
	return r.FindByID(ctx, l.ID)
}

func scanLegacy(row interface{ Scan(...any) error }) (domain.LegacyLicense, error) {
	var (
		l           domain.LegacyLicense
		licenseType string
		expiration  sql.NullString
		cost        sql.NullFloat64
		flat        legacyRow
		createdAt   string
		updatedAt   string
	)
	if err := row.Scan(&l.ID, &l.Name, &licenseType, &l.IsActive,
		&expiration, &cost, &l.Notes,
		&flat.planType, &flat.assignedUser, &flat.userEmail,
		&flat.productType, &flat.deviceCount, &flat.serialNumber,
		&flat.productName, &flat.version, &flat.serverName, &flat.licenseKey,
		&flat.windowsType, &flat.deviceName,
		&createdAt, &updatedAt); err != nil {
		return domain.LegacyLicense{}, err
	}

	l.Cost = fromNullFloat(cost)

	exp, err := fromNullDate(expiration)
	if err != nil {
		return domain.LegacyLicense{}, err
	}
	l.ExpirationDate = exp

	details, err := inflateDetails(domain.LicenseType(licenseType), flat)
	if err != nil {
		return domain.LegacyLicense{}, err
	}
	l.Details = details

	if l.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.LegacyLicense{}, err
	}
	if l.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return domain.LegacyLicense{}, err
	}
	return l, nil
}

// FindByID finds a legacy license by ID
func (r *legacyLicenseRepositoryImpl) FindByID(ctx context.Context, id string) (domain.LegacyLicense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+legacyColumns+` FROM legacy_licenses WHERE id = ?`, id)
	l, err := scanLegacy(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.LegacyLicense{}, fmt.Errorf("legacy license %s: %w", id, ErrNotFound)
		}
		return domain.LegacyLicense{}, fmt.Errorf("failed to find legacy license: %w", err)
	}
	return l, nil
}

// FindAll finds all legacy licenses, newest first
func (r *legacyLicenseRepositoryImpl) FindAll(ctx context.Context) ([]domain.LegacyLicense, error) {
	return r.query(ctx, `SELECT `+legacyColumns+` FROM legacy_licenses ORDER BY created_at DESC, id DESC`)
}

// FindByType finds all legacy licenses of one category, newest first
func (r *legacyLicenseRepositoryImpl) FindByType(ctx context.Context, t domain.LicenseType) ([]domain.LegacyLicense, error) {
	return r.query(ctx,
		`SELECT `+legacyColumns+` FROM legacy_licenses WHERE type = ? ORDER BY created_at DESC, id DESC`,
		string(t))
}

func (r *legacyLicenseRepositoryImpl) query(ctx context.Context, q string, args ...any) ([]domain.LegacyLicense, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find legacy licenses: %w", err)
	}
	defer rows.Close()

	var licenses []domain.LegacyLicense
	for rows.Next() {
		l, err := scanLegacy(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan legacy license: %w", err)
		}
		licenses = append(licenses, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating legacy licenses: %w", err)
	}
	return licenses, nil
}

// DeleteByID deletes a legacy license by ID
func (r *legacyLicenseRepositoryImpl) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM legacy_licenses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete legacy license: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("legacy license %s: %w", id, ErrNotFound)
	}
	return nil
}

// ExistsByID checks if a legacy license exists by ID
func (r *legacyLicenseRepositoryImpl) ExistsByID(ctx context.Context, id string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM legacy_licenses WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check legacy license existence: %w", err)
	}
	return count > 0, nil
}
