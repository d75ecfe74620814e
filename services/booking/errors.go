package booking

import "fmt"

// BookingError is a user-narratable booking failure. Its message is handed
// back to the assistant, which explains it to the customer.
type BookingError struct {
	Code    string
	Message string
}

func (e *BookingError) Error() string {
	return e.Message
}

func NewBookingError(format string, args ...any) error {
	return &BookingError{
		Code:    "bookingError",
		Message: fmt.Sprintf(format, args...),
	}
}
