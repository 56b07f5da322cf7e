package mailer

// Mailer delivers transactional email for staff accounts.
type Mailer interface {
	SendVerificationEmail(toEmail, toName, verifyURL, token string) error
}
