package scriptdesk

import (
	"net/http"
	"time"
)

// Category is one of the fixed script folders.
type Category string

const (
	CategoryWholesaling     Category = "Wholesaling"
	CategoryCreativeFinance Category = "Creative Finance"
	CategoryAgentOutreach   Category = "Agent Outreach"
	CategoryForeclosure     Category = "Foreclosure"
)

// Owner scopes every request to a tenant. At least one field must be set.
type Owner struct {
	TeamID   string
	MemberID string
}

// Config holds the client configuration
type Config struct {
	BaseURL    string        // Service URL, e.g. http://localhost:8080
	APIKey     string        // Bearer token; empty when auth is disabled
	Timeout    time.Duration // Per-request timeout (default: 30 seconds)
	HTTPClient *http.Client  // Optional; overrides Timeout
}

// Script is a stored call script.
type Script struct {
	ID         string    `json:"id"`
	TeamID     string    `json:"teamId,omitempty"`
	MemberID   string    `json:"memberId,omitempty"`
	Name       string    `json:"name"`
	Content    string    `json:"content"`
	Category   Category  `json:"category"`
	IsSelected bool      `json:"isSelected"`
	IsPrimary  bool      `json:"isPrimary"`
	LastEdited time.Time `json:"lastEdited"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// CreateScriptParams holds parameters for creating a script
type CreateScriptParams struct {
	Owner      Owner
	Name       string // Defaults to "Untitled Script" server-side
	Content    string
	Category   Category
	IsPrimary  bool
	IsSelected bool
}

// UpdateScriptParams holds a partial update. Nil fields are left unchanged.
type UpdateScriptParams struct {
	ID         string
	Owner      Owner
	Name       *string
	Content    *string
	Category   *Category
	IsSelected *bool
	IsPrimary  *bool
}

// Converted is the result of uploading a document for conversion.
type Converted struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	Format  string `json:"format"`
}

// Template is a starter script for a category.
type Template struct {
	Title      string `json:"title"`
	Preview    string `json:"preview"`
	FullScript string `json:"fullScript"`
}

// PerformanceGoal is a team's goal configuration. The threshold fields are
// nil when the team has never saved goals.
type PerformanceGoal struct {
	TeamID                 string     `json:"team_id,omitempty"`
	MemberID               string     `json:"member_id,omitempty"`
	OverallPerformanceGoal *float64   `json:"overall_performance_goal,omitempty"`
	NumberOfCallsAverage   *float64   `json:"number_of_calls_average,omitempty"`
	CallLength             int        `json:"call_length"`
	CallExtendAllowed      bool       `json:"call_extend_allowed"`
	CreatedAt              *time.Time `json:"created_at,omitempty"`
}

// SetGoalsParams holds parameters for replacing a team's goals
type SetGoalsParams struct {
	Owner                  Owner
	OverallPerformanceGoal float64
	NumberOfCallsAverage   float64
	CallLength             int
	CallExtendAllowed      *bool // Defaults to true server-side
}

// Health is the service health report.
type Health struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	ScriptCount int64  `json:"script_count"`
}
