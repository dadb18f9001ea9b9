package domain

// DocumentType identifies the kind of identity document a client registered with.
type DocumentType string

const (
	DocumentDNI      DocumentType = "DNI"
	DocumentRUC      DocumentType = "RUC"
	DocumentPassport DocumentType = "PASSPORT"
)

// Client represents a borrower of the institution.
type Client struct {
	ClientID       string       `json:"clientID"` // Primary Key (e.g., UUID)
	FirstName      string       `json:"firstName"`
	LastName       string       `json:"lastName"`
	DocumentType   DocumentType `json:"documentType"`
	DocumentNumber string       `json:"documentNumber"`
	Email          string       `json:"email"` // Nullable
	Phone          string       `json:"phone"` // Nullable
	IsActive       bool         `json:"isActive"`
	AuditFields
}

// FullName returns the client's display name as used in reports.
func (c *Client) FullName() string {
	if c.FirstName == "" {
		return c.LastName
	}
	return c.FirstName + " " + c.LastName
}
