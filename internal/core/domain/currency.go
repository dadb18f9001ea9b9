package domain

// Currency represents a supported currency.
type Currency struct {
	CurrencyCode string `json:"currencyCode"` // Primary Key (e.g., "PEN")
	Symbol       string `json:"symbol"`       // e.g., "S/"
	Name         string `json:"name"`         // e.g., "Peruvian Sol"
	AuditFields
}
