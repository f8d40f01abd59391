package model

import "time"

// AdminLoginPayload is the payload of the "admin_login" service.
type AdminLoginPayload struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AdminSession is returned by a successful admin login.
type AdminSession struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// DeleteOnboardingPayload is the payload of the "delete_onboarding" service.
type DeleteOnboardingPayload struct {
	ID int64 `json:"id" validate:"required,gt=0"`
}
