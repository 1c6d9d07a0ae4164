package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		signupsTotal,
		otpEmailsTotal,
		loginsTotal,
	)
}

var (
	signupsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "signups_total",
			Help: "Signup requests that created or refreshed a pending user.",
		},
	)

	otpEmailsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otp_emails_total",
			Help: "OTP emails by result (sent/failed/rate_limited).",
		},
		[]string{"result"},
	)

	loginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logins_total",
			Help: "Login attempts by result (ok/bad_credentials/inactive).",
		},
		[]string{"result"},
	)
)

func IncSignup() { signupsTotal.Inc() }

func IncOTPEmail(result string) { otpEmailsTotal.WithLabelValues(norm(result)).Inc() }

func IncLogin(result string) { loginsTotal.WithLabelValues(norm(result)).Inc() }
