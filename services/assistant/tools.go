package assistant

import (
	"context"
	"fmt"
)

// ToolDefinition is one function advertised on the assistant.
type ToolDefinition struct {
	Type     string             `json:"type"`
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes a callable function in JSON-schema form.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

func stringParam(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

// BookingTools returns the function schemas the assistant may call. The
// set must stay in lockstep with the dispatcher's switch.
func BookingTools() []ToolDefinition {
	return []ToolDefinition{
		{
			Type: "function",
			Function: FunctionDefinition{
				Name:        "get_sites",
				Description: "Retrieve the studios available in a city.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"city": stringParam("The city name to look up studios in."),
					},
					"required": []string{"city"},
				},
			},
		},
		{
			Type: "function",
			Function: FunctionDefinition{
				Name:        "get_product",
				Description: "Check whether a service is offered at a studio location.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"city":         stringParam("The city of the studio."),
						"service_name": stringParam("The service to check."),
					},
					"required": []string{"city", "service_name"},
				},
			},
		},
		{
			Type: "function",
			Function: FunctionDefinition{
				Name:        "get_employees",
				Description: "Retrieve employees available to perform a service at a studio on a specific date and time.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"city":             stringParam("The location of the studio where the service is requested."),
						"service_name":     stringParam("The name of the service to be performed."),
						"appointment_date": stringParam("The date of the appointment in 'YYYY-MM-DD' format."),
						"appointment_time": stringParam("The time of the appointment in 'HH:MM:SS' format."),
					},
					"required": []string{"city", "service_name", "appointment_date", "appointment_time"},
				},
			},
		},
		{
			Type: "function",
			Function: FunctionDefinition{
				Name:        "get_suggestions",
				Description: "Retrieve available appointment dates and times for a service at a studio location.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"city":         stringParam("The location of the studio where the service is requested."),
						"service_name": stringParam("The name of the service to be performed."),
						"date":         stringParam("The desired date in 'YYYY-MM-DD' format."),
						"time":         stringParam("Optional desired time in 'HH:MM:SS' format."),
					},
					"required": []string{"city", "service_name", "date"},
				},
			},
		},
		{
			Type: "function",
			Function: FunctionDefinition{
				Name:        "confirm_appointment",
				Description: "Create a confirmed appointment by linking it to an open availability slot.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"customer_name":    stringParam("The full name of the customer."),
						"city":             stringParam("The location of the studio where the service is booked."),
						"service_name":     stringParam("The name of the service being booked."),
						"appointment_date": stringParam("The date of the appointment in 'YYYY-MM-DD' format."),
						"appointment_time": stringParam("The time of the appointment in 'HH:MM:SS' format."),
						"s_card":           stringParam("Whether the customer holds an S-Card, 'yes' or 'no'."),
					},
					"required": []string{
						"customer_name",
						"city",
						"service_name",
						"appointment_date",
						"appointment_time",
						"s_card",
					},
				},
			},
		},
		{
			Type: "function",
			Function: FunctionDefinition{
				Name:        "cancel_appointment",
				Description: "Cancel a confirmed appointment by its appointment ID.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"appointment_id": map[string]any{
							"type":        "integer",
							"description": "The ID of the appointment to be cancelled.",
						},
					},
					"required": []string{"appointment_id"},
				},
			},
		},
		{
			Type: "function",
			Function: FunctionDefinition{
				Name:        "fetch_my_appointments",
				Description: "List the customer's current and future appointments.",
				Parameters: map[string]any{
					"type":       "object",
					"properties": map[string]any{},
				},
			},
		},
	}
}

const assistantInstructions = `You are the booking assistant for a chain of sugaring and waxing studios.
You help customers find studios, check which services are offered, see available staff and open slots, book appointments, cancel them, and review their upcoming appointments.

Rules:
- Always confirm city, service, date and time with the customer before booking.
- Ask whether the customer holds an S-Card before confirming; it changes the price.
- Dates are 'YYYY-MM-DD' and times are 'HH:MM:SS'. Use the current date and time appended to each message to resolve words like "today" and "tomorrow".
- Use the provided functions for every factual answer about studios, services, availability and appointments; never invent availability or prices.
- When a function returns an error, explain it to the customer in plain language and suggest a next step.
- Keep replies short and friendly; they are delivered over WhatsApp.`

// EnsureAssistant returns the configured assistant id, creating the
// assistant with the booking toolset when none is configured yet.
func EnsureAssistant(ctx context.Context, client Client, assistantID, model string) (string, error) {
	if assistantID != "" {
		return assistantID, nil
	}
	id, err := client.CreateAssistant(ctx, "Studio Booking Assistant", model, assistantInstructions, BookingTools())
	if err != nil {
		return "", fmt.Errorf("creating assistant: %w", err)
	}
	return id, nil
}
