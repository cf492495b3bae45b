// Package domain holds the core types of the qrlink service: users,
// profile options and the persisted QR mapping records.
package domain

import "time"

// OptionKind is the type of redirect target a profile option points at.
type OptionKind string

const (
	KindWebsite  OptionKind = "website"
	KindEmail    OptionKind = "email"
	KindPhone    OptionKind = "phone"
	KindWhatsApp OptionKind = "whatsapp"
	KindBrochure OptionKind = "brochure"
)

// Valid reports whether k is one of the five supported kinds.
func (k OptionKind) Valid() bool {
	switch k {
	case KindWebsite, KindEmail, KindPhone, KindWhatsApp, KindBrochure:
		return true
	}
	return false
}

// ProfileOption is one candidate redirect target owned by a user.
// Across all options of one owner, at most one has IsActive=true.
type ProfileOption struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"ownerId"`
	Kind      OptionKind `json:"kind"`
	Label     string     `json:"label"`
	Value     string     `json:"value"`
	IsActive  bool       `json:"isActive"`
	CreatedAt time.Time  `json:"createdAt"`
}

// MappingRecord is the denormalized snapshot of an owner's active option,
// keyed by the canonical QR identifier. It exists if and only if the owner
// currently has an active option, and is fully replaced (delete-then-insert)
// on every activation change.
type MappingRecord struct {
	QRID    string     `json:"qr_id"`
	OwnerID string     `json:"owner_id"`
	Kind    OptionKind `json:"kind"`
	Label   string     `json:"label"`
	Value   string     `json:"value"`
}

// User is the account record supplied by the identity layer.
// ID and QRID are assigned at registration and never change.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	QRID  string `json:"qrId"`
}
