// Package booking provides the SQLite data operations behind the
// appointment tools. Every operation opens no session state of its own:
// one call, one statement set, one commit or rollback.
package booking

import (
	"context"
	"errors"
	"time"

	"senara/models"

	"github.com/shopspring/decimal"
)

var (
	// ErrSlotUnavailable means no open slot matched the requested
	// city/service/date/time combination.
	ErrSlotUnavailable = errors.New("no available service found for the given time and location")

	// ErrNoPrice means the service has no price row for the resolved
	// price category.
	ErrNoPrice = errors.New("no price found for service")

	// ErrNotOwned means no appointment matched both the id and the
	// requesting user.
	ErrNotOwned = errors.New("no appointment found with that id for the specified user")

	// ErrUnknownPriceCategory guards the category→column mapping.
	ErrUnknownPriceCategory = errors.New("unknown price category")
)

// BookingRepository defines the data operations over the booking store.
type BookingRepository interface {
	// ListStudios returns the distinct studio locations in a city,
	// matched case-insensitively.
	ListStudios(ctx context.Context, city string) ([]string, error)

	// ServiceOffered reports whether a service is offered in a city.
	ServiceOffered(ctx context.Context, city, serviceName string) (bool, error)

	// AvailableEmployees lists staff free to perform a service at the
	// given date and time.
	AvailableEmployees(ctx context.Context, city, serviceName, date, timeOfDay string) ([]models.Employee, error)

	// OpenSlots lists open (date, time) pairs for a service on a date.
	// timeOfDay narrows the search when non-empty.
	OpenSlots(ctx context.Context, city, serviceName, date, timeOfDay string) ([]models.Slot, error)

	// ConfirmAppointment books the matching open slot in one transaction:
	// slot lookup, price lookup for the category, appointment insert and
	// availability flip all commit or all roll back.
	ConfirmAppointment(ctx context.Context, req models.AppointmentRequest, category models.PriceCategory) (*models.AppointmentConfirmation, error)

	// CancelAppointment removes an appointment owned by userID and
	// restores its slot's availability, atomically.
	CancelAppointment(ctx context.Context, appointmentID int64, userID string) error

	// UpcomingAppointments lists a user's appointments dated fromDate or
	// later, ordered by date then time.
	UpcomingAppointments(ctx context.Context, userID, fromDate string) ([]models.Appointment, error)

	// StudioExists reports whether a named studio exists in a city.
	StudioExists(ctx context.Context, city, studioName string) (bool, error)

	// Reporting.
	TotalAppointments(ctx context.Context) (int, error)
	TotalRevenue(ctx context.Context) (decimal.Decimal, error)
	AppointmentDetails(ctx context.Context) ([]models.AppointmentDetail, error)
	ServicePopularity(ctx context.Context) ([]models.ServicePopularity, error)
	AreaDistribution(ctx context.Context) ([]models.AreaDistribution, error)

	// SweepStatuses marks past Scheduled appointments Completed and
	// returns the number of rows it touched. Cancelled rows are skipped.
	SweepStatuses(ctx context.Context, now time.Time) (int64, error)

	// AppointmentsBetween lists Scheduled appointments starting inside
	// [from, to), for the reminder worker.
	AppointmentsBetween(ctx context.Context, from, to time.Time) ([]models.ReminderTarget, error)
}
