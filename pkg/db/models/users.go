package models

import (
	"time"

	"github.com/google/uuid"
)

// Principal roles. Clients and advocates live in disjoint tables; a uuid is
// only meaningful together with its role.
const (
	RoleClient   = "client"
	RoleAdvocate = "advocate"
)

// Client is a citizen seeking legal help.
type Client struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	FullName     string `json:"full_name" gorm:"not null"`
	Email        string `json:"email" gorm:"not null;uniqueIndex"`
	Phone        string `json:"phone" gorm:"not null"`
	PasswordHash string `json:"-" gorm:"not null"`

	// Onboarding details, filled in after registration.
	State          string `json:"state,omitempty"`
	Address        string `json:"address,omitempty"`
	Description    string `json:"description,omitempty"`
	ProfilePicture string `json:"profile_picture,omitempty"`
	IDProof        string `json:"id_proof,omitempty"`
}

// Advocate is a legal professional offering consultations.
type Advocate struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	FullName     string `json:"full_name" gorm:"not null"`
	Email        string `json:"email" gorm:"not null;uniqueIndex"`
	Phone        string `json:"phone" gorm:"not null;uniqueIndex"`
	PasswordHash string `json:"-" gorm:"not null"`

	// Professional details, filled in during onboarding.
	LawFirm          string `json:"law_firm,omitempty"`
	BarCouncilNumber string `json:"bar_council_number,omitempty"`
	YearsOfPractice  int    `json:"years_of_practice,omitempty"`
	Specialization   string `json:"specialization,omitempty"`
	Location         string `json:"location,omitempty"`
	Bio              string `json:"bio,omitempty"`
	ProfilePicture   string `json:"profile_picture,omitempty"`
	BarCertificate   string `json:"bar_certificate,omitempty"`
}
