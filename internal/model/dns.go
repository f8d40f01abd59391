package model

// DNSRecord is a single record a customer has, or must publish.
type DNSRecord struct {
	Type  string `json:"type"`
	Host  string `json:"host"`
	Value string `json:"value"`
}

// DNSVerification is the verdict of a domain check.
type DNSVerification struct {
	IsValid         bool        `json:"isValid"`
	Message         string      `json:"message"`
	Records         []DNSRecord `json:"records,omitempty"`
	RequiredRecords []DNSRecord `json:"requiredRecords"`
}

// RequiredRecords is the fixed configuration a customer must publish: one A
// record at the apex pointing at targetIP.
func RequiredRecords(targetIP string) []DNSRecord {
	return []DNSRecord{{Type: "A", Host: "@", Value: targetIP}}
}

// GoogleDNSPayload is the payload of the "googledns" service.
type GoogleDNSPayload struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// GoogleDNSAnswer is one entry of a DNS-over-HTTPS JSON answer section.
type GoogleDNSAnswer struct {
	Name string `json:"name"`
	Type int    `json:"type"`
	TTL  int    `json:"TTL"`
	Data string `json:"data"`
}

// GoogleDNSResponse is the subset of the DNS-over-HTTPS JSON response the client reads.
type GoogleDNSResponse struct {
	Status int               `json:"Status"`
	Answer []GoogleDNSAnswer `json:"Answer"`
}

// SiterelicPayload is the payload of the "siterelic" service.
type SiterelicPayload struct {
	URL   string   `json:"url"`
	Types []string `json:"types"`
}

// DeploymentRequest is the payload of the "ansible" service.
type DeploymentRequest struct {
	Domain string `json:"domain"`
	Email  string `json:"email"`
}
