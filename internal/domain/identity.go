package domain

// Identity is the provider-side identity record. The provider is the source
// of truth for Verified; it is never written from the local mirror, only read
// and reconciled into Profile.Verified.
type Identity struct {
	ID       string `json:"id"`
	Subject  string `json:"subject"` // email
	Verified bool   `json:"verified"`
}
