package models

// Facility is the capability projection consumed by the booking engine.
// Facility CRUD and the approval workflow are owned by an external service;
// only the fields the reservation path reads are modeled here.
type Facility struct {
	ID             string `bson:"id" json:"id"`
	OwnerID        string `bson:"owner_id" json:"owner_id"`
	Name           string `bson:"name" json:"name"`
	ApprovalStatus string `bson:"approval_status" json:"approval_status"` // APPROVED, PENDING, REJECTED
	IsPublished    bool   `bson:"is_published" json:"is_published"`
}

// Bookable reports whether the facility accepts new bookings.
func (f *Facility) Bookable() bool {
	return f.ApprovalStatus == "APPROVED" && f.IsPublished
}
