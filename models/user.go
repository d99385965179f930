package models

// Account statuses.
const (
	AccountActive          = "ACTIVE"
	AccountUnderMonitoring = "UNDER_MONITORING"
)

// UserProfile is the slice of a user account the settlement engine touches:
// dispute trust scoring and abuse flagging. Identity itself is resolved
// upstream.
type UserProfile struct {
	ID            string `bson:"id" json:"id"`
	TrustScore    int    `bson:"trust_score" json:"trust_score"`
	AccountStatus string `bson:"account_status" json:"account_status"`
}
