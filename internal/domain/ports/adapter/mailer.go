package adapter

// Mailer sends transactional email. HTML bodies only; the OTP template lives
// in the user use case.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}
