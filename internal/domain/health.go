package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// ComplianceMetrics is returned by GET /v1/metrics/compliance.
type ComplianceMetrics struct {
	CapChecksTotal      int64   `json:"capChecksTotal"`
	CapDenialRate       float64 `json:"capDenialRate"`
	BonusesAwarded      int64   `json:"bonusesAwarded"`
	RefIDCollisions     int64   `json:"refIdCollisions"`
	FlagTransitions     int64   `json:"flagTransitions"`
	SLABreachesObserved int64   `json:"slaBreachesObserved"`
	Period              string  `json:"period"`
}

// ============================================================
// Generic API Response wrappers
// ============================================================

// ListResponse wraps paginated list results.
type ListResponse[T any] struct {
	Data     []T `json:"data"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}
