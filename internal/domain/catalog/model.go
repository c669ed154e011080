package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Facility maps to the facility table (a pharmacy branch in the network).
type Facility struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Code      string    `db:"code" json:"code"`
	Address   *string   `db:"address" json:"address,omitempty"`
	City      *string   `db:"city" json:"city,omitempty"`
	State     *string   `db:"state" json:"state,omitempty"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Medicine maps to the medicine table (network-wide drug catalog; per-facility
// quantities live in stock_entry).
type Medicine struct {
	ID                   uuid.UUID `db:"id" json:"id"`
	Name                 string    `db:"name" json:"name"`
	GenericName          *string   `db:"generic_name" json:"generic_name,omitempty"`
	Manufacturer         *string   `db:"manufacturer" json:"manufacturer,omitempty"`
	Category             *string   `db:"category" json:"category,omitempty"`
	Strength             *string   `db:"strength" json:"strength,omitempty"`
	Form                 *string   `db:"form" json:"form,omitempty"`
	Description          *string   `db:"description" json:"description,omitempty"`
	RequiresPrescription bool      `db:"requires_prescription" json:"requires_prescription"`
	Active               bool      `db:"active" json:"active"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}
