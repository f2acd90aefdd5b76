package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fleetworks/fleet-tracker/internal/common"
	"github.com/fleetworks/fleet-tracker/internal/entity"
)

type VehicleRepository interface {
	List(ctx context.Context) ([]*entity.Vehicle, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Vehicle, error)
	GetByVIN(ctx context.Context, vin string) (*entity.Vehicle, error)
	Create(ctx context.Context, v *entity.Vehicle) error
	Update(ctx context.Context, v *entity.Vehicle) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Roster returns the immutable projection one pipeline run consumes.
	Roster(ctx context.Context) ([]entity.VehicleRef, error)

	// BumpMileage raises current_mileage to the given value, only if higher.
	BumpMileage(ctx context.Context, id uuid.UUID, mileage int) error
}

type vehicleRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewVehicleRepository(db *DB, logger *slog.Logger) VehicleRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &vehicleRepository{db: db, logger: logger}
}

const vehicleColumns = `id, vin, make, model, year, license_plate, purchase_date, current_mileage, status, assigned_driver, created_at`

func (r *vehicleRepository) List(ctx context.Context) ([]*entity.Vehicle, error) {
	q := r.db.rebind(`SELECT ` + vehicleColumns + ` FROM vehicles ORDER BY created_at, id`)
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		r.logger.Error("failed to list vehicles", "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *vehicleRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Vehicle, error) {
	q := r.db.rebind(`SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = ?`)
	v, err := scanVehicle(r.db.QueryRowContext(ctx, q, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("VEHICLE_NOT_FOUND", id.String(), common.ErrNotFound)
	}
	return v, err
}

func (r *vehicleRepository) GetByVIN(ctx context.Context, vin string) (*entity.Vehicle, error) {
	q := r.db.rebind(`SELECT ` + vehicleColumns + ` FROM vehicles WHERE vin = ?`)
	v, err := scanVehicle(r.db.QueryRowContext(ctx, q, strings.ToUpper(vin)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("VEHICLE_NOT_FOUND", vin, common.ErrNotFound)
	}
	return v, err
}

func (r *vehicleRepository) Create(ctx context.Context, v *entity.Vehicle) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	if v.Status == "" {
		v.Status = "Active"
	}
	v.VIN = strings.ToUpper(v.VIN)
	v.LicensePlate = strings.ToUpper(v.LicensePlate)

	q := r.db.rebind(`INSERT INTO vehicles (` + vehicleColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, q,
		v.ID.String(), v.VIN, v.Make, v.Model, v.Year, v.LicensePlate,
		v.PurchaseDate.Format("2006-01-02"), v.CurrentMileage, v.Status,
		nullStr(v.AssignedDriver), v.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		r.logger.Error("failed to create vehicle", "vin", v.VIN, "error", err)
		return common.WrapError(err, "create vehicle")
	}
	r.logger.Info("vehicle created", "vehicle_id", v.ID, "vin", v.VIN)
	return nil
}

func (r *vehicleRepository) Update(ctx context.Context, v *entity.Vehicle) error {
	v.VIN = strings.ToUpper(v.VIN)
	v.LicensePlate = strings.ToUpper(v.LicensePlate)

	q := r.db.rebind(`UPDATE vehicles SET vin = ?, make = ?, model = ?, year = ?, license_plate = ?,
		purchase_date = ?, current_mileage = ?, status = ?, assigned_driver = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, q,
		v.VIN, v.Make, v.Model, v.Year, v.LicensePlate,
		v.PurchaseDate.Format("2006-01-02"), v.CurrentMileage, v.Status,
		nullStr(v.AssignedDriver), v.ID.String(),
	)
	if err != nil {
		r.logger.Error("failed to update vehicle", "vehicle_id", v.ID, "error", err)
		return common.WrapError(err, "update vehicle")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.NewAppError("VEHICLE_NOT_FOUND", v.ID.String(), common.ErrNotFound)
	}
	return nil
}

func (r *vehicleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	q := r.db.rebind(`DELETE FROM vehicles WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, q, id.String())
	if err != nil {
		r.logger.Error("failed to delete vehicle", "vehicle_id", id, "error", err)
		return common.WrapError(err, "delete vehicle")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.NewAppError("VEHICLE_NOT_FOUND", id.String(), common.ErrNotFound)
	}
	r.logger.Info("vehicle deleted", "vehicle_id", id)
	return nil
}

func (r *vehicleRepository) Roster(ctx context.Context) ([]entity.VehicleRef, error) {
	vehicles, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	refs := make([]entity.VehicleRef, len(vehicles))
	for i, v := range vehicles {
		refs[i] = v.Ref()
	}
	return refs, nil
}

func (r *vehicleRepository) BumpMileage(ctx context.Context, id uuid.UUID, mileage int) error {
	q := r.db.rebind(`UPDATE vehicles SET current_mileage = ? WHERE id = ? AND current_mileage < ?`)
	_, err := r.db.ExecContext(ctx, q, mileage, id.String(), mileage)
	if err != nil {
		r.logger.Error("failed to bump mileage", "vehicle_id", id, "error", err)
		return common.WrapError(err, "bump mileage")
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanVehicle(row rowScanner) (*entity.Vehicle, error) {
	var (
		v              entity.Vehicle
		id             string
		purchaseDate   string
		createdAt      string
		assignedDriver sql.NullString
	)
	err := row.Scan(&id, &v.VIN, &v.Make, &v.Model, &v.Year, &v.LicensePlate,
		&purchaseDate, &v.CurrentMileage, &v.Status, &assignedDriver, &createdAt)
	if err != nil {
		return nil, err
	}

	v.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	if v.PurchaseDate, err = time.Parse("2006-01-02", purchaseDate); err != nil {
		return nil, err
	}
	if v.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, err
	}
	if assignedDriver.Valid && assignedDriver.String != "" {
		v.AssignedDriver = &assignedDriver.String
	}
	return &v, nil
}

func nullStr(p *string) any {
	if p == nil || *p == "" {
		return nil
	}
	return *p
}
