package models

import "time"

// Attendance is one consumed pass day. Unique per (booking, date).
type Attendance struct {
	ID         string    `bson:"id" json:"id"`
	BookingID  string    `bson:"booking_id" json:"booking_id"`
	FacilityID string    `bson:"facility_id" json:"facility_id"`
	Date       string    `bson:"date" json:"date"` // "YYYY-MM-DD"
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

// ScanResult is the read-only check-in preview returned to owners before the
// explicit mark action.
type ScanResult struct {
	BookingID           string `json:"bookingId"`
	UserID              string `json:"userId"`
	FacilityID          string `json:"facilityId"`
	SlotType            string `json:"slotType"`
	SlotTime            string `json:"slotTime,omitempty"`
	PassDays            int    `json:"passDays"`
	ActiveDaysRemaining int    `json:"activeDaysRemaining"`
	StartDate           string `json:"startDate"`
	EndDate             string `json:"endDate"`
	CanMarkAttendance   bool   `json:"canMarkAttendance"`
	Reason              string `json:"reason,omitempty"`
}
