package utils

import (
	"fmt"
	"log"

	"github.com/keighl/postmark"
)

// EmailService sends notifications through Postmark. Delivery is best-effort:
// callers dispatch in a goroutine and failures are only logged.
type EmailService struct {
	client *postmark.Client
	sender string
}

// NewEmailService builds the service. With no API token configured the
// service is disabled and SendEmail becomes a logged no-op, which keeps
// local development working without a Postmark account.
func NewEmailService(apiToken, sender string) *EmailService {
	if apiToken == "" {
		log.Println("POSTMARK_API_TOKEN not set, outbound email disabled")
		return &EmailService{sender: sender}
	}
	return &EmailService{client: postmark.NewClient(apiToken, ""), sender: sender}
}

// SendEmail sends a single HTML email to the recipient.
func (es *EmailService) SendEmail(toEmail, subject, htmlContent string) error {
	if es.client == nil {
		log.Printf("email disabled, skipping %q to %s", subject, toEmail)
		return nil
	}
	_, err := es.client.SendEmail(postmark.Email{
		From:     es.sender,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlContent,
		TextBody: htmlContent,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendWelcomeEmail greets a newly registered user.
func (es *EmailService) SendWelcomeEmail(toEmail, name string) error {
	subject := "Welcome To Shopora"
	htmlContent := fmt.Sprintf(
		"<strong>Dear %s,</strong><br><br>Your account has been created successfully. Happy shopping!",
		name,
	)
	return es.SendEmail(toEmail, subject, htmlContent)
}

// SendOrderConfirmationEmail confirms a paid order.
func (es *EmailService) SendOrderConfirmationEmail(toEmail, orderID string, total float64, arrival string) error {
	subject := "Order Confirmation"
	htmlContent := fmt.Sprintf(
		"<strong>Dear Customer,</strong><br><br>Thank you for your purchase! Your order (ID: %s) has been paid successfully and should arrive by <strong>%s</strong>.<br><br>Total Amount: <strong>$%.2f</strong><br><br>Thank you for shopping with us!",
		orderID, arrival, total,
	)
	return es.SendEmail(toEmail, subject, htmlContent)
}

// SendOrderCancelledEmail notifies the user their order was cancelled.
func (es *EmailService) SendOrderCancelledEmail(toEmail, orderID string, refunded bool) error {
	subject := "Order Cancelled"
	refundNote := ""
	if refunded {
		refundNote = " A refund has been requested and will be returned to your payment method."
	}
	htmlContent := fmt.Sprintf(
		"<strong>Dear Customer,</strong><br><br>Your order (ID: %s) has been cancelled.%s",
		orderID, refundNote,
	)
	return es.SendEmail(toEmail, subject, htmlContent)
}
