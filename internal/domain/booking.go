package domain

import "time"

type LabTest struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Booking struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patient_id"`
	TestID    string    `json:"test_id"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BookingWithTest es una reserva con su estudio poblado.
type BookingWithTest struct {
	Booking
	Test *LabTest `json:"test,omitempty"`
}
