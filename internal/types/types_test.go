package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestScriptCategory_Valid(t *testing.T) {
	for _, c := range Categories {
		if !c.Valid() {
			t.Errorf("%q should be valid", c)
		}
	}

	invalid := []ScriptCategory{"", "wholesaling", "Probate", "Creative  Finance"}
	for _, c := range invalid {
		if c.Valid() {
			t.Errorf("%q should be invalid", c)
		}
	}
}

func TestNewOwner_TrimsAndPrefersMemberID(t *testing.T) {
	o := NewOwner("  team-1 ", " mem-1 ", "ms-1")
	if o.TeamID != "team-1" {
		t.Errorf("TeamID = %q, want %q", o.TeamID, "team-1")
	}
	if o.MemberID != "mem-1" {
		t.Errorf("MemberID = %q, want %q", o.MemberID, "mem-1")
	}
}

func TestNewOwner_FallsBackToMemberstackID(t *testing.T) {
	o := NewOwner("", "", "ms-1")
	if o.MemberID != "ms-1" {
		t.Errorf("MemberID = %q, want %q", o.MemberID, "ms-1")
	}
}

func TestOwner_Valid(t *testing.T) {
	tests := []struct {
		name  string
		owner Owner
		want  bool
	}{
		{"empty", Owner{}, false},
		{"team only", Owner{TeamID: "t"}, true},
		{"member only", Owner{MemberID: "m"}, true},
		{"both", Owner{TeamID: "t", MemberID: "m"}, true},
		{"whitespace", NewOwner("   ", "\t", ""), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.owner.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScriptPatch_Empty(t *testing.T) {
	if !(ScriptPatch{}).Empty() {
		t.Error("zero patch should be empty")
	}
	name := "x"
	if (ScriptPatch{Name: &name}).Empty() {
		t.Error("patch with name should not be empty")
	}
	f := false
	if (ScriptPatch{IsPrimary: &f}).Empty() {
		t.Error("patch with isPrimary=false should not be empty")
	}
}

func TestUpdateScriptRequest_DistinguishesAbsentFromZero(t *testing.T) {
	var req UpdateScriptRequest
	body := `{"id":"01J","teamId":"t","isPrimary":false,"name":""}`
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	patch := req.Patch()
	if patch.IsPrimary == nil || *patch.IsPrimary {
		t.Errorf("IsPrimary = %v, want pointer to false", patch.IsPrimary)
	}
	if patch.Name == nil || *patch.Name != "" {
		t.Errorf("Name = %v, want pointer to empty string", patch.Name)
	}
	if patch.Content != nil {
		t.Error("Content should be nil when absent")
	}
	if patch.Category != nil {
		t.Error("Category should be nil when absent")
	}
}

func TestScript_JSONFieldNames(t *testing.T) {
	data, err := json.Marshal(Script{ID: "1", Name: "n", Category: CategoryForeclosure})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	for _, field := range []string{"id", "name", "content", "category", "isSelected", "isPrimary", "lastEdited", "createdAt", "updatedAt"} {
		if _, ok := raw[field]; !ok {
			t.Errorf("missing field %q in %s", field, data)
		}
	}
}

func TestDefaultPerformanceGoal_JSONShape(t *testing.T) {
	data, err := json.Marshal(DefaultPerformanceGoal("team-1"))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	s := string(data)
	if !strings.Contains(s, `"call_length":10`) {
		t.Errorf("expected call_length 10 in %s", s)
	}
	if !strings.Contains(s, `"call_extend_allowed":true`) {
		t.Errorf("expected call_extend_allowed true in %s", s)
	}
	if strings.Contains(s, "overall_performance_goal") {
		t.Errorf("overall_performance_goal should be omitted in %s", s)
	}
	if strings.Contains(s, "created_at") {
		t.Errorf("created_at should be omitted in %s", s)
	}
}

func TestTemplatesResponse_NilSliceMarshalsAsEmptyArray(t *testing.T) {
	data, err := json.Marshal(TemplatesResponse{})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"templates":[]}` {
		t.Errorf("got %s, want {\"templates\":[]}", data)
	}
}
