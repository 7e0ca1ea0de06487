package domain

// MedicineSummary is the per-item view handed to the assistant.
type MedicineSummary struct {
	Name     string `json:"name"`
	Stock    int64  `json:"stock"`
	Expiry   string `json:"expiry"`
	LowStock bool   `json:"lowStock"`
}

// AssistantSnapshot is the read-only state the assistant may see.
type AssistantSnapshot struct {
	Medicines  []MedicineSummary `json:"medicines"`
	SalesCount int               `json:"salesCount"`
}

// RestockPriority is the overall urgency reported by an inventory health check.
type RestockPriority string

const (
	RestockLow    RestockPriority = "Low"
	RestockMedium RestockPriority = "Medium"
	RestockHigh   RestockPriority = "High"
)

// Valid reports whether p is one of Low, Medium or High.
func (p RestockPriority) Valid() bool {
	switch p {
	case RestockLow, RestockMedium, RestockHigh:
		return true
	}
	return false
}

// InventoryHealth is the structured assistant response.
type InventoryHealth struct {
	CriticalItems   []string        `json:"criticalItems" jsonschema:"description=Medicine names that need urgent restocking"`
	Summary         string          `json:"summary" jsonschema:"description=A short two-sentence summary of overall inventory health"`
	RestockPriority RestockPriority `json:"restockPriority" jsonschema:"enum=Low,enum=Medium,enum=High,description=Overall urgency for restocking"`
}
