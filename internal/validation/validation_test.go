package validation

import (
	"strings"
	"testing"

	"github.com/hyperengineering/scriptdesk/internal/types"
)

// --- Field validator tests ---

func TestFieldValidators(t *testing.T) {
	tests := []struct {
		name    string
		err     *ValidationError
		wantErr bool
	}{
		{"text ascii", ValidateText("f", "hello"), false},
		{"text unicode", ValidateText("f", "Hola, 世界"), false},
		{"text invalid utf8", ValidateText("f", string([]byte{0xff, 0xfe})), true},
		{"text null byte", ValidateText("f", "scr\x00ipt"), true},
		{"id valid", ValidateID("f", "01ARZ3NDEKTSV4RRFFQ69G5FAV"), false},
		{"id lowercase", ValidateID("f", "01arz3ndektsv4rrffq69g5fav"), false},
		{"id short", ValidateID("f", "01ARZ3"), true},
		{"id bad char", ValidateID("f", "01ARZ3NDEKTSV4RRFFQ69G5FAU"), true},
		{"required set", ValidateRequired("f", "x"), false},
		{"required empty", ValidateRequired("f", ""), true},
		{"required whitespace", ValidateRequired("f", " \t\n"), true},
		{"range within", ValidateRange("f", 50, 0, 100), false},
		{"range at bounds", ValidateRange("f", 100, 0, 100), false},
		{"range below", ValidateRange("f", -1, 0, 100), true},
		{"range above", ValidateRange("f", 101, 0, 100), true},
		{"present", ValidatePresent("f", new(int)), false},
		{"absent", ValidatePresent[int]("f", nil), true},
		{"category known", ValidateCategory("f", types.CategoryAgentOutreach), false},
		{"category case sensitive", ValidateCategory("f", "wholesaling"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if gotErr := tt.err != nil; gotErr != tt.wantErr {
				t.Errorf("error = %v, wantErr %v", tt.err, tt.wantErr)
			}
			if tt.err != nil && tt.err.Field != "f" {
				t.Errorf("Field = %q, want %q", tt.err.Field, "f")
			}
		})
	}
}

func TestValidateCategory_MessageListsAllowedValues(t *testing.T) {
	err := ValidateCategory("category", "Probate")
	if err == nil {
		t.Fatal("expected error")
	}
	for _, c := range types.Categories {
		if !strings.Contains(err.Message, string(c)) {
			t.Errorf("message %q should list %q", err.Message, c)
		}
	}
}

// --- Collector tests ---

func TestCollector_AccumulatesAndIgnoresNil(t *testing.T) {
	var c Collector
	if c.HasErrors() {
		t.Error("new collector should have no errors")
	}

	c.Add(nil)
	c.Add(&ValidationError{Field: "a", Message: "bad"})
	c.Add(nil)
	c.Add(&ValidationError{Field: "b", Message: "worse"})

	if !c.HasErrors() {
		t.Error("HasErrors() = false, want true")
	}
	errs := c.Errors()
	if len(errs) != 2 || errs[0].Field != "a" || errs[1].Field != "b" {
		t.Errorf("Errors() = %+v", errs)
	}
}

// --- Request validator tests ---

func hasField(errs []ValidationError, field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
func intPtr(n int) *int       { return &n }
func f64Ptr(f float64) *float64 {
	return &f
}

func TestValidateCreateScript_Valid(t *testing.T) {
	errs := ValidateCreateScript(types.CreateScriptRequest{
		TeamID:   "team-1",
		Content:  "Hello, I'm calling about your property...",
		Category: types.CategoryWholesaling,
	})
	if len(errs) != 0 {
		t.Errorf("errors = %+v, want none", errs)
	}
}

func TestValidateCreateScript_MemberstackIDIsAnOwner(t *testing.T) {
	errs := ValidateCreateScript(types.CreateScriptRequest{
		MemberstackID: "mem_123",
		Content:       "c",
		Category:      types.CategoryForeclosure,
	})
	if len(errs) != 0 {
		t.Errorf("errors = %+v, want none", errs)
	}
}

func TestValidateCreateScript_MissingFields(t *testing.T) {
	errs := ValidateCreateScript(types.CreateScriptRequest{})

	for _, field := range []string{"teamId", "content", "category"} {
		if !hasField(errs, field) {
			t.Errorf("expected error for %q, got %+v", field, errs)
		}
	}
}

func TestValidateCreateScript_UnknownCategory(t *testing.T) {
	errs := ValidateCreateScript(types.CreateScriptRequest{
		TeamID:   "t",
		Content:  "c",
		Category: "Probate",
	})
	if !hasField(errs, "category") {
		t.Errorf("expected category error, got %+v", errs)
	}
}

func TestValidateCreateScript_NameTooLong(t *testing.T) {
	errs := ValidateCreateScript(types.CreateScriptRequest{
		TeamID:   "t",
		Name:     strings.Repeat("n", MaxNameLength+1),
		Content:  "c",
		Category: types.CategoryWholesaling,
	})
	if !hasField(errs, "name") {
		t.Errorf("expected name error, got %+v", errs)
	}
}

func TestValidateCreateScript_LongContentAccepted(t *testing.T) {
	errs := ValidateCreateScript(types.CreateScriptRequest{
		TeamID:   "t",
		Content:  strings.Repeat("Hi, this is Sam calling about your property. ", 10000),
		Category: types.CategoryWholesaling,
	})
	if len(errs) != 0 {
		t.Errorf("errors = %+v, want none", errs)
	}
}

func TestValidateUpdateScript(t *testing.T) {
	const id = "01ARZ3NDEKTSV4RRFFQ69G5FAV"

	tests := []struct {
		name      string
		req       types.UpdateScriptRequest
		wantField string
	}{
		{"valid rename", types.UpdateScriptRequest{ID: id, TeamID: "t", Name: strPtr("new")}, ""},
		{"valid unset primary", types.UpdateScriptRequest{ID: id, TeamID: "t", IsPrimary: boolPtr(false)}, ""},
		{"missing id", types.UpdateScriptRequest{TeamID: "t", Name: strPtr("x")}, "id"},
		{"malformed id", types.UpdateScriptRequest{ID: "42", TeamID: "t", Name: strPtr("x")}, "id"},
		{"missing owner", types.UpdateScriptRequest{ID: id, Name: strPtr("x")}, "teamId"},
		{"blank name", types.UpdateScriptRequest{ID: id, TeamID: "t", Name: strPtr(" ")}, "name"},
		{"bad category", types.UpdateScriptRequest{ID: id, TeamID: "t", Category: catPtr("Probate")}, "category"},
		{"null byte content", types.UpdateScriptRequest{ID: id, TeamID: "t", Content: strPtr("a\x00")}, "content"},
		{"empty patch", types.UpdateScriptRequest{ID: id, TeamID: "t"}, "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateUpdateScript(tt.req)
			if tt.wantField == "" {
				if len(errs) != 0 {
					t.Errorf("errors = %+v, want none", errs)
				}
				return
			}
			if !hasField(errs, tt.wantField) {
				t.Errorf("expected %q error, got %+v", tt.wantField, errs)
			}
		})
	}
}

func catPtr(c types.ScriptCategory) *types.ScriptCategory { return &c }

func TestValidateScriptLocator(t *testing.T) {
	if errs := ValidateScriptLocator("01ARZ3NDEKTSV4RRFFQ69G5FAV", types.Owner{MemberID: "m"}); len(errs) != 0 {
		t.Errorf("errors = %+v, want none", errs)
	}
	errs := ValidateScriptLocator("", types.Owner{})
	if !hasField(errs, "id") || !hasField(errs, "teamId") {
		t.Errorf("expected id and teamId errors, got %+v", errs)
	}
}

func TestValidateSetPerformanceGoal(t *testing.T) {
	valid := types.SetPerformanceGoalRequest{
		TeamID:                 "team-1",
		OverallPerformanceGoal: f64Ptr(80),
		NumberOfCallsAverage:   f64Ptr(12),
		CallLength:             intPtr(15),
	}
	if errs := ValidateSetPerformanceGoal(valid); len(errs) != 0 {
		t.Errorf("errors = %+v, want none", errs)
	}

	tests := []struct {
		name      string
		mutate    func(r *types.SetPerformanceGoalRequest)
		wantField string
	}{
		{"missing owner", func(r *types.SetPerformanceGoalRequest) { r.TeamID = "" }, "teamId"},
		{"missing overall", func(r *types.SetPerformanceGoalRequest) { r.OverallPerformanceGoal = nil }, "overall_performance_goal"},
		{"missing calls", func(r *types.SetPerformanceGoalRequest) { r.NumberOfCallsAverage = nil }, "number_of_calls_average"},
		{"missing call length", func(r *types.SetPerformanceGoalRequest) { r.CallLength = nil }, "call_length"},
		{"overall above 100", func(r *types.SetPerformanceGoalRequest) { r.OverallPerformanceGoal = f64Ptr(120) }, "overall_performance_goal"},
		{"zero call length", func(r *types.SetPerformanceGoalRequest) { r.CallLength = intPtr(0) }, "call_length"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			errs := ValidateSetPerformanceGoal(req)
			if !hasField(errs, tt.wantField) {
				t.Errorf("expected %q error, got %+v", tt.wantField, errs)
			}
		})
	}
}

func TestValidateSetPerformanceGoal_ZeroValuesArePresent(t *testing.T) {
	errs := ValidateSetPerformanceGoal(types.SetPerformanceGoalRequest{
		MemberID:               "m",
		OverallPerformanceGoal: f64Ptr(0),
		NumberOfCallsAverage:   f64Ptr(0),
		CallLength:             intPtr(1),
	})
	if len(errs) != 0 {
		t.Errorf("errors = %+v, want none", errs)
	}
}
