package booking

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"senara/models"

	"github.com/shopspring/decimal"
)

// floatToDecimal converts a REAL column value to a decimal price.
func floatToDecimal(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func (r *SQLiteBookingRepo) TotalAppointments(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM Appointment;`
	var total int
	if err := r.db.QueryRowContext(ctx, query).Scan(&total); err != nil {
		return 0, fmt.Errorf("count appointments: %w", err)
	}
	return total, nil
}

func (r *SQLiteBookingRepo) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	const query = `SELECT SUM(service_price) FROM Appointment;`
	var sum sql.NullFloat64
	if err := r.db.QueryRowContext(ctx, query).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum revenue: %w", err)
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return floatToDecimal(sum.Float64), nil
}

func (r *SQLiteBookingRepo) AppointmentDetails(ctx context.Context) ([]models.AppointmentDetail, error) {
	const query = `
		SELECT service_name, appointment_date, appointment_time,
		       studio_location, status, service_price
		FROM Appointment;
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("appointment details: %w", err)
	}
	defer rows.Close()

	var details []models.AppointmentDetail
	for rows.Next() {
		var (
			d     models.AppointmentDetail
			price sql.NullFloat64
		)
		if err := rows.Scan(&d.ServiceName, &d.Date, &d.Time, &d.StudioLocation, &d.Status, &price); err != nil {
			return nil, err
		}
		d.Revenue = floatToDecimal(price.Float64)
		details = append(details, d)
	}
	return details, rows.Err()
}

func (r *SQLiteBookingRepo) ServicePopularity(ctx context.Context) ([]models.ServicePopularity, error) {
	const query = `
		SELECT service_name, COUNT(*) AS total_bookings
		FROM Appointment
		GROUP BY service_name
		ORDER BY total_bookings DESC;
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("service popularity: %w", err)
	}
	defer rows.Close()

	var services []models.ServicePopularity
	for rows.Next() {
		var s models.ServicePopularity
		if err := rows.Scan(&s.ServiceName, &s.TotalBookings); err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

func (r *SQLiteBookingRepo) AreaDistribution(ctx context.Context) ([]models.AreaDistribution, error) {
	const query = `
		SELECT studio_location AS city, COUNT(*) AS total_bookings
		FROM Appointment
		GROUP BY studio_location
		ORDER BY total_bookings DESC;
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("area distribution: %w", err)
	}
	defer rows.Close()

	var areas []models.AreaDistribution
	for rows.Next() {
		var a models.AreaDistribution
		if err := rows.Scan(&a.City, &a.TotalBookings); err != nil {
			return nil, err
		}
		areas = append(areas, a)
	}
	return areas, rows.Err()
}

func (r *SQLiteBookingRepo) SweepStatuses(ctx context.Context, now time.Time) (int64, error) {
	const query = `
		UPDATE Appointment
		SET status = 'Completed'
		WHERE status = 'Scheduled'
		  AND datetime(appointment_date || ' ' || appointment_time) < ?;
	`
	result, err := r.db.ExecContext(ctx, query, now.Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, fmt.Errorf("sweep statuses: %w", err)
	}
	return result.RowsAffected()
}

func (r *SQLiteBookingRepo) AppointmentsBetween(ctx context.Context, from, to time.Time) ([]models.ReminderTarget, error) {
	const query = `
		SELECT appointment_id, customer_name, customer_contact, service_name,
		       studio_location, appointment_date, appointment_time
		FROM Appointment
		WHERE status = 'Scheduled'
		  AND datetime(appointment_date || ' ' || appointment_time) >= ?
		  AND datetime(appointment_date || ' ' || appointment_time) < ?
		ORDER BY appointment_date, appointment_time;
	`
	rows, err := r.db.QueryContext(ctx, query,
		from.Format("2006-01-02 15:04:05"), to.Format("2006-01-02 15:04:05"))
	if err != nil {
		return nil, fmt.Errorf("appointments between: %w", err)
	}
	defer rows.Close()

	var targets []models.ReminderTarget
	for rows.Next() {
		var (
			t       models.ReminderTarget
			contact sql.NullString
		)
		if err := rows.Scan(&t.AppointmentID, &t.CustomerName, &contact, &t.ServiceName, &t.StudioLocation, &t.Date, &t.Time); err != nil {
			return nil, err
		}
		t.CustomerContact = contact.String
		targets = append(targets, t)
	}
	return targets, rows.Err()
}
