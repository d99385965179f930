package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	"slotpass/config"
)

// Pass credentials are presented by users at check-in. The format is
// CHECKIN::<base64(json payload)>::<hex hmac-sha256>, signed with a dedicated
// secret so a tampered booking, facility, or validity window is detectable
// without a database round trip.

const passPrefix = "CHECKIN"

var (
	ErrPassMalformed = errors.New("pass credential malformed")
	ErrPassTampered  = errors.New("pass credential signature mismatch")
)

// PassPayload is the signed content of a pass credential.
type PassPayload struct {
	BookingID  string `json:"bookingId"`
	FacilityID string `json:"facilityId"`
	SlotType   string `json:"slotType"`
	ValidFrom  string `json:"validFrom"`
	ValidTill  string `json:"validTill"`
}

func passSecret() []byte {
	return []byte(config.AppConfig.CheckinSecret)
}

func passSign(encoded string) string {
	mac := hmac.New(sha256.New, passSecret())
	mac.Write([]byte(passPrefix + "::" + encoded))
	return hex.EncodeToString(mac.Sum(nil))
}

// SignPass produces the signed credential for a payload.
func SignPass(p PassPayload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	encoded := base64.StdEncoding.EncodeToString(raw)
	return passPrefix + "::" + encoded + "::" + passSign(encoded), nil
}

// VerifyPass validates the structure and signature of a credential and
// returns its payload. Any prefix, segment, or signature mismatch is
// rejected as tampered.
func VerifyPass(token string) (*PassPayload, error) {
	parts := strings.Split(token, "::")
	if len(parts) != 3 || parts[0] != passPrefix {
		return nil, ErrPassMalformed
	}
	encoded, sig := parts[1], parts[2]
	if !hmac.Equal([]byte(passSign(encoded)), []byte(sig)) {
		return nil, ErrPassTampered
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrPassMalformed
	}
	var p PassPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, ErrPassMalformed
	}
	if p.BookingID == "" || p.FacilityID == "" {
		return nil, ErrPassMalformed
	}
	return &p, nil
}
