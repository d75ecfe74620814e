package assistant

import (
	"context"
	"errors"
	"testing"

	"senara/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeBooking is a scriptable BookingService for dispatcher tests.
type fakeBooking struct {
	studios      []string
	studiosErr   error
	offered      bool
	employees    []models.Employee
	slots        []models.Slot
	confirm      *models.AppointmentConfirmation
	confirmErr   error
	confirmedReq models.AppointmentRequest
	cancelErr    error
	cancelledID  int64
	cancelledBy  string
	appointments []models.Appointment
}

func (f *fakeBooking) ListStudios(ctx context.Context, city string) ([]string, error) {
	return f.studios, f.studiosErr
}

func (f *fakeBooking) CheckService(ctx context.Context, city, serviceName string) (bool, error) {
	return f.offered, nil
}

func (f *fakeBooking) AvailableEmployees(ctx context.Context, city, serviceName, date, timeOfDay string) ([]models.Employee, error) {
	return f.employees, nil
}

func (f *fakeBooking) OpenSlots(ctx context.Context, city, serviceName, date, timeOfDay string) ([]models.Slot, error) {
	return f.slots, nil
}

func (f *fakeBooking) ConfirmAppointment(ctx context.Context, req models.AppointmentRequest) (*models.AppointmentConfirmation, error) {
	f.confirmedReq = req
	return f.confirm, f.confirmErr
}

func (f *fakeBooking) CancelAppointment(ctx context.Context, appointmentID int64, userID string) error {
	f.cancelledID = appointmentID
	f.cancelledBy = userID
	return f.cancelErr
}

func (f *fakeBooking) MyAppointments(ctx context.Context, userID string) ([]models.Appointment, error) {
	return f.appointments, nil
}

func toolCall(id, name, args string) models.AssistantToolCall {
	call := models.AssistantToolCall{ID: id, Type: "function"}
	call.Function.Name = name
	call.Function.Arguments = args
	return call
}

func TestHandleToolCallsOneOutputPerCall(t *testing.T) {
	fake := &fakeBooking{
		studios:    []string{"Cologne"},
		studiosErr: nil,
	}
	d := NewDispatcher(fake, zap.NewNop())

	calls := []models.AssistantToolCall{
		toolCall("call_1", "get_sites", `{"city": "Cologne"}`),
		toolCall("call_2", "get_sites", `not json`),
		toolCall("call_3", "no_such_function", `{}`),
	}
	outputs := d.HandleToolCalls(context.Background(), calls, "4917012345678")

	// Every call id gets an answer, even the broken ones.
	require.Len(t, outputs, 3)
	assert.Equal(t, "call_1", outputs[0].ToolCallID)
	assert.Contains(t, outputs[0].Output, "Studios in Cologne: Cologne")
	assert.Equal(t, "call_2", outputs[1].ToolCallID)
	assert.Contains(t, outputs[1].Output, "error")
	assert.Equal(t, "call_3", outputs[2].ToolCallID)
	assert.Contains(t, outputs[2].Output, "Function no_such_function not implemented")
}

func TestDispatchFailuresBecomeErrorOutputs(t *testing.T) {
	fake := &fakeBooking{studiosErr: errors.New("database is locked")}
	d := NewDispatcher(fake, zap.NewNop())

	outputs := d.HandleToolCalls(context.Background(),
		[]models.AssistantToolCall{toolCall("call_1", "get_sites", `{"city": "Cologne"}`)},
		"4917012345678")

	require.Len(t, outputs, 1)
	assert.JSONEq(t, `{"error": "database is locked"}`, outputs[0].Output)
}

func TestConfirmAppointmentBindsSessionUser(t *testing.T) {
	fake := &fakeBooking{
		confirm: &models.AppointmentConfirmation{AppointmentID: 7, Price: decimal.NewFromInt(22)},
	}
	d := NewDispatcher(fake, zap.NewNop())

	args := `{
		"customer_name": "Jane Doe",
		"city": "Munich",
		"service_name": "Bikini classic",
		"appointment_date": "2030-11-01",
		"appointment_time": "09:00:00",
		"s_card": "yes"
	}`
	outputs := d.HandleToolCalls(context.Background(),
		[]models.AssistantToolCall{toolCall("call_1", "confirm_appointment", args)},
		"4917012345678")

	require.Len(t, outputs, 1)
	assert.Contains(t, outputs[0].Output, "appointment ID: 7")

	// The requesting user is taken from the session, never from arguments.
	assert.Equal(t, "4917012345678", fake.confirmedReq.UserID)
	assert.Equal(t, "4917012345678", fake.confirmedReq.CustomerContact)
	assert.Equal(t, "yes", fake.confirmedReq.CardFlag)
}

func TestCancelAppointmentBindsSessionUser(t *testing.T) {
	fake := &fakeBooking{}
	d := NewDispatcher(fake, zap.NewNop())

	outputs := d.HandleToolCalls(context.Background(),
		[]models.AssistantToolCall{toolCall("call_1", "cancel_appointment", `{"appointment_id": 42}`)},
		"4917012345678")

	require.Len(t, outputs, 1)
	assert.Contains(t, outputs[0].Output, "Appointment with ID 42 has been cancelled successfully.")
	assert.EqualValues(t, 42, fake.cancelledID)
	assert.Equal(t, "4917012345678", fake.cancelledBy)
}

func TestFetchMyAppointmentsEmpty(t *testing.T) {
	d := NewDispatcher(&fakeBooking{}, zap.NewNop())

	outputs := d.HandleToolCalls(context.Background(),
		[]models.AssistantToolCall{toolCall("call_1", "fetch_my_appointments", `{}`)},
		"4917012345678")

	require.Len(t, outputs, 1)
	assert.JSONEq(t, `{"message": "No current or future appointments found."}`, outputs[0].Output)
}

func TestGetSuggestionsMessages(t *testing.T) {
	d := NewDispatcher(&fakeBooking{}, zap.NewNop())

	// With a requested time the message names it.
	outputs := d.HandleToolCalls(context.Background(),
		[]models.AssistantToolCall{toolCall("call_1", "get_suggestions",
			`{"city": "Cologne", "service_name": "Po", "date": "2030-10-05", "time": "14:00:00"}`)},
		"4917012345678")
	require.Len(t, outputs, 1)
	assert.Contains(t, outputs[0].Output, "No available slot for 'Po' at Cologne on 2030-10-05 at 14:00:00.")

	// Without one it reports the whole day.
	outputs = d.HandleToolCalls(context.Background(),
		[]models.AssistantToolCall{toolCall("call_1", "get_suggestions",
			`{"city": "Cologne", "service_name": "Po", "date": "2030-10-05"}`)},
		"4917012345678")
	require.Len(t, outputs, 1)
	assert.Contains(t, outputs[0].Output, "No available slots for 'Po' at Cologne on 2030-10-05.")
}
