package model

import "time"

// CredentialRecord is the stored form of a user's analysis-provider API key.
// Ciphertext is the base64 sealed blob and is opaque outside internal/crypto.
// A record with an empty Ciphertext is treated as "no key on file".
type CredentialRecord struct {
	UserID     string
	Ciphertext string
	UpdatedAt  time.Time
}

// HasKey reports whether the record carries a sealed key.
func (r *CredentialRecord) HasKey() bool {
	return r != nil && r.Ciphertext != ""
}
