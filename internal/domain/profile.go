package domain

import "time"

// Profile is the locally mirrored user record. The identity provider owns the
// authoritative identity; this mirror exists so the API can serve profile
// reads without a provider round-trip. Email doubles as the subject id and is
// the join key with the provider's record.
type Profile struct {
	Email       string     `json:"email" dynamodbav:"email"`
	ProfileID   string     `json:"id" dynamodbav:"profile_id"`
	DisplayName *string    `json:"display_name,omitempty" dynamodbav:"display_name"`
	Phone       *string    `json:"phone,omitempty" dynamodbav:"phone"`
	Verified    bool       `json:"verified" dynamodbav:"verified"`
	CreatedAt   time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time  `json:"updated" dynamodbav:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
}

type RegisterRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required,min=8,max=72"`
	DisplayName *string `json:"display_name"`
	Phone       *string `json:"phone"`
}
