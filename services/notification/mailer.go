package notification

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

const confirmationSubject = "Payment Confirmation - Your Booking is Confirmed!"

const confirmationBody = `Dear Customer,

Thank you for your payment!

Your booking (ID: %s) has been confirmed.
Amount Paid: ETB %s

We look forward to hosting you!

Best regards,
TripNest Team
`

// SMTPMailer sends confirmation emails through an SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer creates a mailer with injected transport credentials.
func NewSMTPMailer(host string, port int, user, password string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   user,
	}
}

// SendConfirmation composes and sends the fixed-template confirmation message.
func (m *SMTPMailer) SendConfirmation(userEmail, bookingID, amount string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", userEmail)
	msg.SetHeader("Subject", confirmationSubject)
	msg.SetBody("text/plain", fmt.Sprintf(confirmationBody, bookingID, amount))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send confirmation email to %s: %w", userEmail, err)
	}
	return nil
}
