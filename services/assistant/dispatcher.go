package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"senara/models"
	"senara/services/booking"

	"go.uber.org/zap"
)

// Dispatcher resolves tool calls surfaced by a run against the booking
// operations. It never lets a failure cross its boundary: every call in a
// batch yields exactly one output, errors included, because the remote run
// stalls if any call id goes unanswered.
type Dispatcher struct {
	booking booking.BookingService
	logger  *zap.Logger
}

func NewDispatcher(svc booking.BookingService, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{booking: svc, logger: logger}
}

type siteArgs struct {
	City string `json:"city"`
}

type productArgs struct {
	City        string `json:"city"`
	ServiceName string `json:"service_name"`
}

type employeeArgs struct {
	City            string `json:"city"`
	ServiceName     string `json:"service_name"`
	AppointmentDate string `json:"appointment_date"`
	AppointmentTime string `json:"appointment_time"`
}

type suggestionArgs struct {
	City        string `json:"city"`
	ServiceName string `json:"service_name"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}

type confirmArgs struct {
	CustomerName    string `json:"customer_name"`
	City            string `json:"city"`
	ServiceName     string `json:"service_name"`
	AppointmentDate string `json:"appointment_date"`
	AppointmentTime string `json:"appointment_time"`
	SCard           string `json:"s_card"`
}

type cancelArgs struct {
	AppointmentID int64 `json:"appointment_id"`
}

// HandleToolCalls produces one output per call, keyed by call id.
func (d *Dispatcher) HandleToolCalls(ctx context.Context, calls []models.AssistantToolCall, userID string) []models.ToolOutput {
	outputs := make([]models.ToolOutput, 0, len(calls))
	for _, call := range calls {
		result := d.dispatch(ctx, call, userID)
		payload, err := json.Marshal(result)
		if err != nil {
			d.logger.Error("marshaling tool result",
				zap.String("function", call.Function.Name), zap.Error(err))
			payload = []byte(`{"error": "internal error serializing result"}`)
		}
		outputs = append(outputs, models.ToolOutput{
			ToolCallID: call.ID,
			Output:     string(payload),
		})
	}
	return outputs
}

// dispatch runs one tool call and returns its JSON-serializable result.
// userID is bound from the session, never from model-supplied arguments, so
// a user cannot act on another user's appointments.
func (d *Dispatcher) dispatch(ctx context.Context, call models.AssistantToolCall, userID string) any {
	name := call.Function.Name
	args := []byte(call.Function.Arguments)

	switch name {
	case "get_sites":
		var a siteArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return errorResult(err)
		}
		studios, err := d.booking.ListStudios(ctx, a.City)
		if err != nil {
			return errorResult(err)
		}
		if len(studios) == 0 {
			return fmt.Sprintf("We do not have any studios in %s.", a.City)
		}
		return fmt.Sprintf("Studios in %s: %s", a.City, strings.Join(studios, ", "))

	case "get_product":
		var a productArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return errorResult(err)
		}
		offered, err := d.booking.CheckService(ctx, a.City, a.ServiceName)
		if err != nil {
			return errorResult(err)
		}
		if !offered {
			return fmt.Sprintf("Sorry, '%s' is not offered at our %s studio.", a.ServiceName, a.City)
		}
		return fmt.Sprintf("Yes, we offer '%s' at our %s studio.", a.ServiceName, a.City)

	case "get_employees":
		var a employeeArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return errorResult(err)
		}
		employees, err := d.booking.AvailableEmployees(ctx, a.City, a.ServiceName, a.AppointmentDate, a.AppointmentTime)
		if err != nil {
			return errorResult(err)
		}
		if len(employees) == 0 {
			return fmt.Sprintf("No available employees found for '%s' at our %s studio on %s at %s.",
				a.ServiceName, a.City, a.AppointmentDate, a.AppointmentTime)
		}
		return employees

	case "get_suggestions":
		var a suggestionArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return errorResult(err)
		}
		slots, err := d.booking.OpenSlots(ctx, a.City, a.ServiceName, a.Date, a.Time)
		if err != nil {
			return errorResult(err)
		}
		if len(slots) == 0 {
			if a.Time != "" {
				return fmt.Sprintf("No available slot for '%s' at %s on %s at %s.",
					a.ServiceName, a.City, a.Date, a.Time)
			}
			return fmt.Sprintf("No available slots for '%s' at %s on %s.",
				a.ServiceName, a.City, a.Date)
		}
		return slots

	case "confirm_appointment":
		var a confirmArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return errorResult(err)
		}
		conf, err := d.booking.ConfirmAppointment(ctx, models.AppointmentRequest{
			CustomerName:    a.CustomerName,
			CustomerContact: userID,
			City:            a.City,
			ServiceName:     a.ServiceName,
			Date:            a.AppointmentDate,
			Time:            a.AppointmentTime,
			CardFlag:        a.SCard,
			UserID:          userID,
		})
		if err != nil {
			return errorResult(err)
		}
		return map[string]any{
			"success": fmt.Sprintf("%s, your appointment was confirmed successfully with appointment ID: %d.",
				a.CustomerName, conf.AppointmentID),
			"service_price": conf.Price,
		}

	case "cancel_appointment":
		var a cancelArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return errorResult(err)
		}
		if err := d.booking.CancelAppointment(ctx, a.AppointmentID, userID); err != nil {
			return errorResult(err)
		}
		return map[string]any{
			"success": fmt.Sprintf("Appointment with ID %d has been cancelled successfully.", a.AppointmentID),
		}

	case "fetch_my_appointments":
		appointments, err := d.booking.MyAppointments(ctx, userID)
		if err != nil {
			return errorResult(err)
		}
		if len(appointments) == 0 {
			return map[string]any{"message": "No current or future appointments found."}
		}
		return map[string]any{"appointments": appointments}

	default:
		return map[string]any{"error": fmt.Sprintf("Function %s not implemented", name)}
	}
}

func errorResult(err error) map[string]any {
	return map[string]any{"error": err.Error()}
}
