package types

import (
	"encoding/json"
	"strings"
	"time"
)

// ScriptCategory is the closed set of script folders.
type ScriptCategory string

const (
	CategoryWholesaling     ScriptCategory = "Wholesaling"
	CategoryCreativeFinance ScriptCategory = "Creative Finance"
	CategoryAgentOutreach   ScriptCategory = "Agent Outreach"
	CategoryForeclosure     ScriptCategory = "Foreclosure"
)

// Categories lists every valid category in display order.
var Categories = []ScriptCategory{
	CategoryWholesaling,
	CategoryCreativeFinance,
	CategoryAgentOutreach,
	CategoryForeclosure,
}

// Valid reports whether c is one of the known categories.
func (c ScriptCategory) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// DefaultScriptName is used when a script is created without a name.
const DefaultScriptName = "Untitled Script"

// Performance goal defaults returned when a team has no stored goals.
const (
	DefaultCallLength        = 10
	DefaultCallExtendAllowed = true
)

// Owner identifies the tenant a record belongs to. It is built once per
// request from the caller's identifiers and passed explicitly to the store.
type Owner struct {
	TeamID   string `json:"teamId,omitempty"`
	MemberID string `json:"memberId,omitempty"`
}

// NewOwner trims both identifiers. memberstackID is the legacy name for the
// member identifier and is used only when memberID is empty.
func NewOwner(teamID, memberID, memberstackID string) Owner {
	member := strings.TrimSpace(memberID)
	if member == "" {
		member = strings.TrimSpace(memberstackID)
	}
	return Owner{
		TeamID:   strings.TrimSpace(teamID),
		MemberID: member,
	}
}

// Valid reports whether at least one identifier is present.
func (o Owner) Valid() bool {
	return o.TeamID != "" || o.MemberID != ""
}

// Script is a stored call script.
type Script struct {
	ID         string         `json:"id"`
	TeamID     string         `json:"teamId,omitempty"`
	MemberID   string         `json:"memberId,omitempty"`
	Name       string         `json:"name"`
	Content    string         `json:"content"`
	Category   ScriptCategory `json:"category"`
	IsSelected bool           `json:"isSelected"`
	IsPrimary  bool           `json:"isPrimary"`
	LastEdited time.Time      `json:"lastEdited"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// Owner returns the owner key the script was created under.
func (s Script) Owner() Owner {
	return Owner{TeamID: s.TeamID, MemberID: s.MemberID}
}

// NewScript is the input for creating a script (without generated fields).
type NewScript struct {
	Owner      Owner
	Name       string
	Content    string
	Category   ScriptCategory
	IsPrimary  bool
	IsSelected bool
}

// ScriptPatch carries the fields a partial update changes. Nil fields are
// left untouched.
type ScriptPatch struct {
	Name       *string
	Content    *string
	Category   *ScriptCategory
	IsSelected *bool
	IsPrimary  *bool
}

// Empty reports whether the patch changes nothing.
func (p ScriptPatch) Empty() bool {
	return p.Name == nil && p.Content == nil && p.Category == nil &&
		p.IsSelected == nil && p.IsPrimary == nil
}

// CreateScriptRequest is the POST /api/scripts body.
type CreateScriptRequest struct {
	TeamID        string         `json:"teamId"`
	MemberID      string         `json:"memberId"`
	MemberstackID string         `json:"memberstackId"`
	Name          string         `json:"name"`
	Content       string         `json:"content"`
	Category      ScriptCategory `json:"category"`
	IsPrimary     bool           `json:"isPrimary"`
	IsSelected    bool           `json:"isSelected"`
}

// Owner returns the caller's owner key.
func (r CreateScriptRequest) Owner() Owner {
	return NewOwner(r.TeamID, r.MemberID, r.MemberstackID)
}

// UpdateScriptRequest is the PUT /api/scripts body. Pointer fields
// distinguish "absent" from the zero value.
type UpdateScriptRequest struct {
	ID            string          `json:"id"`
	TeamID        string          `json:"teamId"`
	MemberID      string          `json:"memberId"`
	MemberstackID string          `json:"memberstackId"`
	Name          *string         `json:"name"`
	Content       *string         `json:"content"`
	Category      *ScriptCategory `json:"category"`
	IsSelected    *bool           `json:"isSelected"`
	IsPrimary     *bool           `json:"isPrimary"`
}

// Owner returns the caller's owner key.
func (r UpdateScriptRequest) Owner() Owner {
	return NewOwner(r.TeamID, r.MemberID, r.MemberstackID)
}

// Patch extracts the partial update carried by the request.
func (r UpdateScriptRequest) Patch() ScriptPatch {
	return ScriptPatch{
		Name:       r.Name,
		Content:    r.Content,
		Category:   r.Category,
		IsSelected: r.IsSelected,
		IsPrimary:  r.IsPrimary,
	}
}

// DeleteResponse is returned by DELETE /api/scripts.
type DeleteResponse struct {
	Success bool `json:"success"`
}

// ConvertResponse is returned by POST /api/scripts/convert.
type ConvertResponse struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	Format  string `json:"format"`
}

// PerformanceGoal is the per-team goal configuration. Threshold fields are
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

// DefaultPerformanceGoal returns the goals reported for a team with no row.
func DefaultPerformanceGoal(teamID string) PerformanceGoal {
	return PerformanceGoal{
		TeamID:            teamID,
		CallLength:        DefaultCallLength,
		CallExtendAllowed: DefaultCallExtendAllowed,
	}
}

// NewPerformanceGoal is the input for replacing an owner's goals.
type NewPerformanceGoal struct {
	Owner                  Owner
	OverallPerformanceGoal float64
	NumberOfCallsAverage   float64
	CallLength             int
	CallExtendAllowed      bool
}

// SetPerformanceGoalRequest is the POST /api/performance-goals body.
// Required numeric fields are pointers so that absence is detectable.
type SetPerformanceGoalRequest struct {
	TeamID                 string   `json:"teamId"`
	MemberID               string   `json:"memberId"`
	OverallPerformanceGoal *float64 `json:"overall_performance_goal"`
	NumberOfCallsAverage   *float64 `json:"number_of_calls_average"`
	CallLength             *int     `json:"call_length"`
	CallExtendAllowed      *bool    `json:"call_extend_allowed"`
}

// Owner returns the caller's owner key.
func (r SetPerformanceGoalRequest) Owner() Owner {
	return NewOwner(r.TeamID, r.MemberID, "")
}

// DurationRequest is the POST /api/performance-goals/duration body.
type DurationRequest struct {
	TeamID   string `json:"teamId"`
	MemberID string `json:"memberId"`
}

// DurationResponse is returned by the duration endpoints.
type DurationResponse struct {
	CallLength int `json:"call_length"`
}

// CallExtendResponse is returned by GET /api/call-extend-status.
type CallExtendResponse struct {
	CallExtendAllowed bool `json:"call_extend_allowed"`
}

// Template is a starter script offered for a category.
type Template struct {
	Title      string `json:"title" yaml:"title"`
	Preview    string `json:"preview" yaml:"preview"`
	FullScript string `json:"fullScript" yaml:"full_script"`
}

// TemplatesResponse is returned by GET /api/templates.
type TemplatesResponse struct {
	Templates []Template `json:"templates"`
}

// MarshalJSON ensures nil slices in TemplatesResponse marshal as [] not null.
func (r TemplatesResponse) MarshalJSON() ([]byte, error) {
	if r.Templates == nil {
		r.Templates = []Template{}
	}
	type Alias TemplatesResponse
	return json.Marshal(Alias(r))
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	ScriptCount int64  `json:"script_count"`
}

// StoreStats holds aggregate store statistics.
type StoreStats struct {
	ScriptCount int64 `json:"script_count"`
	GoalCount   int64 `json:"goal_count"`
}
