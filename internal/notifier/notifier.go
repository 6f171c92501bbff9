// Package notifier defines the outbound message-delivery capability used
// by the confirmation job. The actual SMS/push gateway is an external
// collaborator; only its send interface is in scope here.
package notifier

import "log"

// Notifier delivers an order confirmation message to a customer.
type Notifier interface {
	SendConfirmation(phoneNumber, orderID string) error
}

// LogNotifier is a stand-in gateway that logs instead of sending, for
// local development and tests.
type LogNotifier struct{}

func (LogNotifier) SendConfirmation(phoneNumber, orderID string) error {
	log.Printf("SEND_MSG to %s for order %s", phoneNumber, orderID)
	return nil
}
