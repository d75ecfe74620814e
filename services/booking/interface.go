package booking

import (
	"context"

	"senara/models"
)

// BookingService defines the booking operations exposed to the assistant's
// tool dispatcher. Every method is a single request/response data
// operation; resilience and conversation state live above this layer.
type BookingService interface {
	ListStudios(ctx context.Context, city string) ([]string, error)
	CheckService(ctx context.Context, city, serviceName string) (bool, error)
	AvailableEmployees(ctx context.Context, city, serviceName, date, timeOfDay string) ([]models.Employee, error)
	OpenSlots(ctx context.Context, city, serviceName, date, timeOfDay string) ([]models.Slot, error)
	ConfirmAppointment(ctx context.Context, req models.AppointmentRequest) (*models.AppointmentConfirmation, error)
	CancelAppointment(ctx context.Context, appointmentID int64, userID string) error
	MyAppointments(ctx context.Context, userID string) ([]models.Appointment, error)
}
