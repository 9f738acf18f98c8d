package services

import (
	"fmt"
	"log"

	"gopkg.in/gomail.v2"

	"healthlink/internal/logging"
)

type EmailService interface {
	// SendSync delivers a plain-text message and reports delivery failure.
	SendSync(to, subject, body string) error
	// SendAsync delivers in the background; failures are logged, never returned.
	SendAsync(to, subject, body string)

	SendPasswordResetConfirmation(email string) error
	SendAccountApproved(email, fullName string) error
	SendAccountRejected(email, fullName, reason string) error
	SendAppointmentConfirmation(email, doctorName string, startTime string, joinURL string) error
	SendEmergencyWelcome(email, tempPassword string) error
	SendPaymentVerified(email string, amount float64) error
	SendNotification(email, title, message string) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
	audit  *logging.SafeLogger
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail, fromName string, audit *logging.SafeLogger) EmailService {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	from := fromEmail
	if fromName != "" {
		from = fmt.Sprintf("%s <%s>", fromName, fromEmail)
	}
	return &emailService{
		dialer: dialer,
		from:   from,
		audit:  audit,
	}
}

func (s *emailService) SendSync(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *emailService) SendAsync(to, subject, body string) {
	go func() {
		if err := s.SendSync(to, subject, body); err != nil {
			log.Printf("[email] async send failed: %v", err)
			s.audit.Event("email_send_failed").
				WithMasked("email", to).
				With("subject", subject).
				With("error", err.Error()).
				LogError()
		}
	}()
}

func (s *emailService) sendHTML(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *emailService) SendPasswordResetConfirmation(email string) error {
	body := `
		<h3>Your password was changed</h3>
		<p>The password for your HealthLink account has just been reset.</p>
		<p>If this was not you, contact support immediately.</p>
	`
	return s.sendHTML(email, "Your HealthLink password was reset", body)
}

func (s *emailService) SendAccountApproved(email, fullName string) error {
	body := fmt.Sprintf(`
		<h2>Welcome to HealthLink, %s!</h2>
		<p>Your account has been reviewed and approved.</p>
		<p>You can now sign in and start using the platform.</p>
		<p>Best regards,<br>The HealthLink Team</p>
	`, fullName)
	return s.sendHTML(email, "Your HealthLink account was approved", body)
}

func (s *emailService) SendAccountRejected(email, fullName, reason string) error {
	body := fmt.Sprintf(`
		<h3>Account review update</h3>
		<p>Dear %s, unfortunately your registration could not be approved.</p>
		<p>Reason: %s</p>
		<p>You may reply to this email if you believe this is a mistake.</p>
	`, fullName, reason)
	return s.sendHTML(email, "Your HealthLink registration", body)
}

func (s *emailService) SendAppointmentConfirmation(email, doctorName string, startTime string, joinURL string) error {
	body := fmt.Sprintf(`
		<h3>Appointment confirmed</h3>
		<p>Your appointment with %s is scheduled for %s.</p>
		<p>Join link: <a href="%s">%s</a></p>
	`, doctorName, startTime, joinURL, joinURL)
	return s.sendHTML(email, "Your HealthLink appointment is confirmed", body)
}

func (s *emailService) SendEmergencyWelcome(email, tempPassword string) error {
	body := fmt.Sprintf(`
		<h3>Emergency access created</h3>
		<p>An emergency patient account was created for you.</p>
		<p>Temporary password: <strong>%s</strong></p>
		<p>Please change it after your first sign-in.</p>
	`, tempPassword)
	return s.sendHTML(email, "Your HealthLink emergency access", body)
}

func (s *emailService) SendPaymentVerified(email string, amount float64) error {
	body := fmt.Sprintf(`
		<h3>Payment received</h3>
		<p>Your payment of %.2f has been verified.</p>
		<p>A receipt has been generated for your records.</p>
	`, amount)
	return s.sendHTML(email, "Your HealthLink payment was verified", body)
}


func (s *emailService) SendNotification(email, title, message string) error {
	body := fmt.Sprintf(`
		<h3>%s</h3>
		<p>%s</p>
	`, title, message)
	return s.sendHTML(email, title, body)
}
