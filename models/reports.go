package models

import "github.com/shopspring/decimal"

// AppointmentDetail is one row of the appointment-details report.
type AppointmentDetail struct {
	ServiceName    string          `json:"service_name"`
	Date           string          `json:"appointment_date"`
	Time           string          `json:"appointment_time"`
	StudioLocation string          `json:"studio_location"`
	Status         string          `json:"status"`
	Revenue        decimal.Decimal `json:"revenue"`
}

// ServicePopularity counts bookings per service.
type ServicePopularity struct {
	ServiceName   string `json:"service_name"`
	TotalBookings int    `json:"total_bookings"`
}

// AreaDistribution counts bookings per city.
type AreaDistribution struct {
	City          string `json:"city"`
	TotalBookings int    `json:"total_bookings"`
}
