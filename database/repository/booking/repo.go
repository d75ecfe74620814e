package booking

import (
	"context"
	"database/sql"
	"fmt"

	"senara/models"
)

// SQLiteBookingRepo is the SQLite-backed implementation of BookingRepository.
type SQLiteBookingRepo struct {
	db *sql.DB
}

// NewSQLiteBookingRepo returns a repository over the given database handle.
func NewSQLiteBookingRepo(db *sql.DB) *SQLiteBookingRepo {
	return &SQLiteBookingRepo{db: db}
}

func (r *SQLiteBookingRepo) ListStudios(ctx context.Context, city string) ([]string, error) {
	const query = `
		SELECT DISTINCT studio_location FROM ServiceAvailability
		WHERE LOWER(studio_location) = LOWER(?);
	`
	rows, err := r.db.QueryContext(ctx, query, city)
	if err != nil {
		return nil, fmt.Errorf("list studios: %w", err)
	}
	defer rows.Close()

	var studios []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		studios = append(studios, s)
	}
	return studios, rows.Err()
}

func (r *SQLiteBookingRepo) ServiceOffered(ctx context.Context, city, serviceName string) (bool, error) {
	const query = `
		SELECT 1 FROM ServiceAvailability
		WHERE LOWER(studio_location) = LOWER(?) AND LOWER(service_name) = LOWER(?)
		LIMIT 1;
	`
	var one int
	err := r.db.QueryRowContext(ctx, query, city, serviceName).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check service: %w", err)
	}
	return true, nil
}

func (r *SQLiteBookingRepo) AvailableEmployees(ctx context.Context, city, serviceName, date, timeOfDay string) ([]models.Employee, error) {
	const query = `
		SELECT DISTINCT employee_id, employee_name FROM ServiceAvailability
		WHERE LOWER(studio_location) = LOWER(?) AND LOWER(service_name) = LOWER(?)
		  AND appointment_date = ? AND appointment_time = ? AND is_available = 1;
	`
	rows, err := r.db.QueryContext(ctx, query, city, serviceName, date, timeOfDay)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var employees []models.Employee
	for rows.Next() {
		var e models.Employee
		if err := rows.Scan(&e.ID, &e.Name); err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (r *SQLiteBookingRepo) OpenSlots(ctx context.Context, city, serviceName, date, timeOfDay string) ([]models.Slot, error) {
	query := `
		SELECT DISTINCT appointment_date, appointment_time
		FROM ServiceAvailability
		WHERE LOWER(studio_location) = LOWER(?)
		  AND LOWER(service_name) = LOWER(?)
		  AND appointment_date = ?
		  AND is_available = 1
	`
	args := []any{city, serviceName, date}
	if timeOfDay != "" {
		query += ` AND appointment_time = ?`
		args = append(args, timeOfDay)
	}
	query += ` ORDER BY appointment_date, appointment_time;`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list open slots: %w", err)
	}
	defer rows.Close()

	var slots []models.Slot
	for rows.Next() {
		var s models.Slot
		if err := rows.Scan(&s.Date, &s.Time); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// priceColumn maps a price category onto its Services column. The switch is
// the only place category values meet SQL text.
func priceColumn(category models.PriceCategory) (string, error) {
	switch category {
	case models.PriceMittelWithoutCard:
		return "price_mittel_without_card", nil
	case models.PriceMunichWithoutCard:
		return "price_munich_without_card", nil
	case models.PriceMittelWithCard:
		return "price_mittel_with_card", nil
	case models.PriceMunichWithCard:
		return "price_munich_with_card", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPriceCategory, category)
}

func (r *SQLiteBookingRepo) ConfirmAppointment(ctx context.Context, req models.AppointmentRequest, category models.PriceCategory) (*models.AppointmentConfirmation, error) {
	column, err := priceColumn(category)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin confirm tx: %w", err)
	}
	defer tx.Rollback()

	const slotQuery = `
		SELECT id FROM ServiceAvailability
		WHERE LOWER(studio_location) = LOWER(?)
		  AND LOWER(service_name) = LOWER(?)
		  AND appointment_date = ?
		  AND appointment_time = ?
		  AND is_available = 1;
	`
	var slotID int64
	err = tx.QueryRowContext(ctx, slotQuery, req.City, req.ServiceName, req.Date, req.Time).Scan(&slotID)
	if err == sql.ErrNoRows {
		return nil, ErrSlotUnavailable
	}
	if err != nil {
		return nil, fmt.Errorf("find slot: %w", err)
	}

	priceQuery := fmt.Sprintf(`
		SELECT %s FROM Services WHERE LOWER(service_name) = LOWER(?);
	`, column)
	var price sql.NullFloat64
	err = tx.QueryRowContext(ctx, priceQuery, req.ServiceName).Scan(&price)
	if err == sql.ErrNoRows || (err == nil && !price.Valid) {
		return nil, fmt.Errorf("%w %s with category %s", ErrNoPrice, req.ServiceName, category)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve price: %w", err)
	}

	const insertQuery = `
		INSERT INTO Appointment (
			service_availability_id, user_id, customer_name, customer_contact,
			service_name, employee_id, employee_name, studio_location,
			appointment_date, appointment_time, status, service_price
		)
		SELECT
			sa.id, ?, ?, ?, sa.service_name, sa.employee_id, sa.employee_name,
			sa.studio_location, sa.appointment_date, sa.appointment_time,
			'Scheduled', ?
		FROM ServiceAvailability sa
		WHERE sa.id = ?;
	`
	result, err := tx.ExecContext(ctx, insertQuery,
		req.UserID, req.CustomerName, req.CustomerContact, price.Float64, slotID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert appointment: %w", err)
	}
	appointmentID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("appointment id: %w", err)
	}

	const flipQuery = `UPDATE ServiceAvailability SET is_available = 0 WHERE id = ?;`
	if _, err := tx.ExecContext(ctx, flipQuery, slotID); err != nil {
		return nil, fmt.Errorf("mark slot unavailable: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit confirm tx: %w", err)
	}
	return &models.AppointmentConfirmation{
		AppointmentID: appointmentID,
		Price:         floatToDecimal(price.Float64),
	}, nil
}

func (r *SQLiteBookingRepo) CancelAppointment(ctx context.Context, appointmentID int64, userID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cancel tx: %w", err)
	}
	defer tx.Rollback()

	// Ownership check: both the id and the requesting user must match.
	const ownerQuery = `
		SELECT service_availability_id FROM Appointment
		WHERE appointment_id = ? AND user_id = ?;
	`
	var slotID sql.NullInt64
	err = tx.QueryRowContext(ctx, ownerQuery, appointmentID, userID).Scan(&slotID)
	if err == sql.ErrNoRows {
		return ErrNotOwned
	}
	if err != nil {
		return fmt.Errorf("find appointment: %w", err)
	}

	const deleteQuery = `DELETE FROM Appointment WHERE appointment_id = ?;`
	if _, err := tx.ExecContext(ctx, deleteQuery, appointmentID); err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}

	if slotID.Valid {
		const restoreQuery = `UPDATE ServiceAvailability SET is_available = 1 WHERE id = ?;`
		if _, err := tx.ExecContext(ctx, restoreQuery, slotID.Int64); err != nil {
			return fmt.Errorf("restore slot availability: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cancel tx: %w", err)
	}
	return nil
}

func (r *SQLiteBookingRepo) UpcomingAppointments(ctx context.Context, userID, fromDate string) ([]models.Appointment, error) {
	const query = `
		SELECT appointment_id, service_name, studio_location, appointment_date,
		       appointment_time, status, service_price
		FROM Appointment
		WHERE user_id = ? AND appointment_date >= ?
		ORDER BY appointment_date, appointment_time;
	`
	rows, err := r.db.QueryContext(ctx, query, userID, fromDate)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var appointments []models.Appointment
	for rows.Next() {
		var (
			a     models.Appointment
			price sql.NullFloat64
		)
		if err := rows.Scan(&a.ID, &a.ServiceName, &a.StudioLocation, &a.Date, &a.Time, &a.Status, &price); err != nil {
			return nil, err
		}
		a.Price = floatToDecimal(price.Float64)
		appointments = append(appointments, a)
	}
	return appointments, rows.Err()
}

func (r *SQLiteBookingRepo) StudioExists(ctx context.Context, city, studioName string) (bool, error) {
	const query = `
		SELECT 1 FROM StudioLocation
		WHERE LOWER(city) = LOWER(?) AND LOWER(studio_name) = LOWER(?)
		LIMIT 1;
	`
	var one int
	err := r.db.QueryRowContext(ctx, query, city, studioName).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check studio: %w", err)
	}
	return true, nil
}
