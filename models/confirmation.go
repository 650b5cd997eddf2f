package models

// ConfirmationPayload is the job body handed to the email worker after a
// payment completes.
type ConfirmationPayload struct {
	UserEmail string `json:"userEmail"`
	BookingID string `json:"bookingId"`
	Amount    string `json:"amount"`
}
