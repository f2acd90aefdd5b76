package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fleetworks/fleet-tracker/internal/common"
	"github.com/fleetworks/fleet-tracker/internal/entity"
)

type MaintenanceRecordRepository interface {
	List(ctx context.Context, from, to *time.Time) ([]*entity.MaintenanceRecord, error)
	ListByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]*entity.MaintenanceRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.MaintenanceRecord, error)
	Create(ctx context.Context, rec *entity.MaintenanceRecord) error
	Update(ctx context.Context, rec *entity.MaintenanceRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type maintenanceRecordRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewMaintenanceRecordRepository(db *DB, logger *slog.Logger) MaintenanceRecordRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &maintenanceRecordRepository{db: db, logger: logger}
}

const recordColumns = `id, vehicle_id, maintenance_type, service_date, mileage_at_service, cost, service_provider, notes, next_service_due, next_service_mileage, created_at`

func (r *maintenanceRecordRepository) List(ctx context.Context, from, to *time.Time) ([]*entity.MaintenanceRecord, error) {
	q := `SELECT ` + recordColumns + ` FROM maintenance_records`
	var (
		conds []string
		args  []any
	)
	if from != nil {
		conds = append(conds, `service_date >= ?`)
		args = append(args, from.Format("2006-01-02"))
	}
	if to != nil {
		conds = append(conds, `service_date <= ?`)
		args = append(args, to.Format("2006-01-02"))
	}
	for i, c := range conds {
		if i == 0 {
			q += ` WHERE ` + c
		} else {
			q += ` AND ` + c
		}
	}
	q += ` ORDER BY service_date DESC, created_at DESC`

	rows, err := r.db.QueryContext(ctx, r.db.rebind(q), args...)
	if err != nil {
		r.logger.Error("failed to list maintenance records", "error", err)
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

func (r *maintenanceRecordRepository) ListByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]*entity.MaintenanceRecord, error) {
	q := r.db.rebind(`SELECT ` + recordColumns + ` FROM maintenance_records WHERE vehicle_id = ? ORDER BY service_date DESC, created_at DESC`)
	rows, err := r.db.QueryContext(ctx, q, vehicleID.String())
	if err != nil {
		r.logger.Error("failed to list maintenance records", "vehicle_id", vehicleID, "error", err)
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

func (r *maintenanceRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.MaintenanceRecord, error) {
	q := r.db.rebind(`SELECT ` + recordColumns + ` FROM maintenance_records WHERE id = ?`)
	rec, err := scanRecord(r.db.QueryRowContext(ctx, q, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("RECORD_NOT_FOUND", id.String(), common.ErrNotFound)
	}
	return rec, err
}

func (r *maintenanceRecordRepository) Create(ctx context.Context, rec *entity.MaintenanceRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	q := r.db.rebind(`INSERT INTO maintenance_records (` + recordColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, q,
		rec.ID.String(), rec.VehicleID.String(), rec.MaintenanceType,
		rec.ServiceDate.Format("2006-01-02"), rec.MileageAtService, rec.Cost,
		nullStr(rec.ServiceProvider), nullStr(rec.Notes),
		nullDate(rec.NextServiceDue), nullInt(rec.NextServiceMileage),
		rec.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		r.logger.Error("failed to create maintenance record", "vehicle_id", rec.VehicleID, "error", err)
		return common.WrapError(err, "create maintenance record")
	}
	r.logger.Info("maintenance record created",
		"record_id", rec.ID, "vehicle_id", rec.VehicleID, "type", rec.MaintenanceType)
	return nil
}

func (r *maintenanceRecordRepository) Update(ctx context.Context, rec *entity.MaintenanceRecord) error {
	q := r.db.rebind(`UPDATE maintenance_records SET maintenance_type = ?, service_date = ?, mileage_at_service = ?,
		cost = ?, service_provider = ?, notes = ?, next_service_due = ?, next_service_mileage = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, q,
		rec.MaintenanceType, rec.ServiceDate.Format("2006-01-02"), rec.MileageAtService,
		rec.Cost, nullStr(rec.ServiceProvider), nullStr(rec.Notes),
		nullDate(rec.NextServiceDue), nullInt(rec.NextServiceMileage), rec.ID.String(),
	)
	if err != nil {
		r.logger.Error("failed to update maintenance record", "record_id", rec.ID, "error", err)
		return common.WrapError(err, "update maintenance record")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.NewAppError("RECORD_NOT_FOUND", rec.ID.String(), common.ErrNotFound)
	}
	return nil
}

func (r *maintenanceRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	q := r.db.rebind(`DELETE FROM maintenance_records WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, q, id.String())
	if err != nil {
		r.logger.Error("failed to delete maintenance record", "record_id", id, "error", err)
		return common.WrapError(err, "delete maintenance record")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.NewAppError("RECORD_NOT_FOUND", id.String(), common.ErrNotFound)
	}
	return nil
}

func collectRecords(rows *sql.Rows) ([]*entity.MaintenanceRecord, error) {
	var out []*entity.MaintenanceRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanRecord(row rowScanner) (*entity.MaintenanceRecord, error) {
	var (
		rec                entity.MaintenanceRecord
		id, vehicleID      string
		serviceDate        string
		createdAt          string
		provider, notes    sql.NullString
		nextServiceDue     sql.NullString
		nextServiceMileage sql.NullInt64
	)
	err := row.Scan(&id, &vehicleID, &rec.MaintenanceType, &serviceDate,
		&rec.MileageAtService, &rec.Cost, &provider, &notes,
		&nextServiceDue, &nextServiceMileage, &createdAt)
	if err != nil {
		return nil, err
	}

	if rec.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if rec.VehicleID, err = uuid.Parse(vehicleID); err != nil {
		return nil, err
	}
	if rec.ServiceDate, err = time.Parse("2006-01-02", serviceDate); err != nil {
		return nil, err
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, err
	}
	if provider.Valid && provider.String != "" {
		rec.ServiceProvider = &provider.String
	}
	if notes.Valid && notes.String != "" {
		rec.Notes = &notes.String
	}
	if nextServiceDue.Valid && nextServiceDue.String != "" {
		if t, perr := time.Parse("2006-01-02", nextServiceDue.String); perr == nil {
			rec.NextServiceDue = &t
		}
	}
	if nextServiceMileage.Valid {
		n := int(nextServiceMileage.Int64)
		rec.NextServiceMileage = &n
	}
	return &rec, nil
}

func nullDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
