package model

import (
	"bytes"
	"encoding/json"

	"gorm.io/datatypes"
)

// Service discriminators accepted by the proxy endpoint.
const (
	ServiceOnboarding       = "onboarding"
	ServiceGetOnboardings   = "get_onboardings"
	ServiceContact          = "contact"
	ServiceGetContacts      = "get_contacts"
	ServiceConversion       = "utm"
	ServiceSiterelic        = "siterelic"
	ServiceAnsible          = "ansible"
	ServiceGoogleDNS        = "googledns"
	ServiceDeleteOnboarding = "delete_onboarding"
	ServiceAdminLogin       = "admin_login"
)

// Envelope is the only request shape accepted by the proxy endpoint.
type Envelope struct {
	Service string          `json:"service"`
	Payload json.RawMessage `json:"payload"`
}

// Valid reports whether both service and an object payload are present.
func (e Envelope) Valid() bool {
	if e.Service == "" {
		return false
	}
	p := bytes.TrimSpace(e.Payload)
	return len(p) > 0 && p[0] == '{'
}

// JSONB marshals v into a jsonb column value.
func JSONB(v interface{}) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}
