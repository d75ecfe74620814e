package models

import "github.com/shopspring/decimal"

// Appointment statuses.
const (
	StatusScheduled = "Scheduled"
	StatusCompleted = "Completed"
	StatusCancelled = "Cancelled"
)

// PriceCategory selects one of the four price columns on a service record.
// The category is a function of the studio city (Munich has its own tariff)
// and whether the customer holds an S-Card.
type PriceCategory string

const (
	PriceMittelWithoutCard PriceCategory = "price_mittel_without_card"
	PriceMunichWithoutCard PriceCategory = "price_munich_without_card"
	PriceMittelWithCard    PriceCategory = "price_mittel_with_card"
	PriceMunichWithCard    PriceCategory = "price_munich_with_card"
)

// Employee is a staff member free to perform a service in a given slot.
type Employee struct {
	ID   int64  `json:"employee_id"`
	Name string `json:"employee_name"`
}

// Slot is an open appointment slot.
type Slot struct {
	Date string `json:"appointment_date"`
	Time string `json:"appointment_time"`
}

// AppointmentRequest carries everything needed to confirm a booking.
// UserID is always the authenticated sender, never model-supplied input.
type AppointmentRequest struct {
	CustomerName    string
	CustomerContact string
	City            string
	ServiceName     string
	Date            string
	Time            string
	CardFlag        string
	UserID          string
}

// AppointmentConfirmation is the result of a successful booking.
type AppointmentConfirmation struct {
	AppointmentID int64           `json:"appointment_id"`
	Price         decimal.Decimal `json:"service_price"`
}

// Appointment is one booked appointment as shown back to its owner.
type Appointment struct {
	ID             int64           `json:"appointment_id"`
	ServiceName    string          `json:"service_name"`
	StudioLocation string          `json:"studio_location"`
	Date           string          `json:"appointment_date"`
	Time           string          `json:"appointment_time"`
	Status         string          `json:"status"`
	Price          decimal.Decimal `json:"service_price"`
}

// ReminderTarget is the slice of an appointment the reminder worker needs.
type ReminderTarget struct {
	AppointmentID   int64  `json:"appointment_id"`
	CustomerName    string `json:"customer_name"`
	CustomerContact string `json:"customer_contact"`
	ServiceName     string `json:"service_name"`
	StudioLocation  string `json:"studio_location"`
	Date            string `json:"appointment_date"`
	Time            string `json:"appointment_time"`
}
