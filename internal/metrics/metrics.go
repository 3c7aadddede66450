package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Account Lifecycle Metrics
	NewUsersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_new_users_total",
		Help: "Total number of new user registrations.",
	})
	SeededUsersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_seeded_users_total",
		Help: "Total number of default accounts created at startup.",
	})
	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_login_attempts_total",
		Help: "Total number of login attempts (successful and failed).",
	}, []string{"status"}) // status: "success", "failed" or "unverified"
	PasswordResetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_password_resets_total",
		Help: "Total number of completed password resets.",
	})
	PasswordChangesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_password_changes_total",
		Help: "Total number of password changes by signed-in users.",
	})
	TotalUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "app_total_users",
		Help: "Total number of registered users in the application.",
	})

	// OTP Metrics
	OTPIssuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_otp_issued_total",
		Help: "Total number of one-time codes issued.",
	}, []string{"purpose"})
	OTPVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_otp_verifications_total",
		Help: "Total number of one-time code checks.",
	}, []string{"purpose", "status"})
	OTPDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_otp_deliveries_total",
		Help: "Total number of one-time code deliveries by channel.",
	}, []string{"channel", "status"})
	OTPThrottledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "app_otp_throttled_total",
		Help: "Total number of one-time code requests refused by the throttle.",
	}, []string{"purpose"})
)
