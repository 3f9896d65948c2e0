package entities

// BookingEmailData feeds the renter notification bodies.
type BookingEmailData struct {
	RenterName     string
	BookingID      string
	UnitModel      string
	UnitSerial     string
	StartFormatted string
	EndFormatted   string
}
