package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slotpass_bookings_created_total",
		Help: "Successful booking creations.",
	})

	BookingsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slotpass_bookings_cancelled_total",
		Help: "Bookings cancelled before start.",
	})

	EscrowsReleased = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slotpass_escrows_released_total",
		Help: "Escrows released to owners.",
	})

	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slotpass_webhook_events_total",
		Help: "Payment webhook events by result.",
	}, []string{"event", "result"})

	AttendanceMarked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slotpass_attendance_marked_total",
		Help: "Attendance records written.",
	})
)
