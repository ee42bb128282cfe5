package domain

import "time"

// OtpRecord is a pending one-time code for a subject. Records are replaced on
// reissue and deleted on consumption, expiry or sweep — never mutated in place.
// At most one live record exists per subject.
type OtpRecord struct {
	Code      string
	ExpiresAt time.Time
}
