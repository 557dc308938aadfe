package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/hyperengineering/scriptdesk/internal/types"
)

// Field limits for script and goal requests. Script content has no length
// limit of its own; the script body limit in the API bounds it.
const (
	MaxNameLength     = 200
	MaxCallLength     = 240
	MaxCallsAverage   = 10000
	MaxGoalPercentage = 100
)

var categoryNames = func() []string {
	names := make([]string, len(types.Categories))
	for i, c := range types.Categories {
		names[i] = string(c)
	}
	return names
}()

// ValidateOwner returns an error if neither team nor member identifier is set.
func ValidateOwner(owner types.Owner) *ValidationError {
	if !owner.Valid() {
		return &ValidationError{
			Field:   "teamId",
			Message: "teamId or memberId is required",
		}
	}
	return nil
}

// ValidateCategory returns an error if the category is not one of the known folders.
func ValidateCategory(field string, c types.ScriptCategory) *ValidationError {
	if c.Valid() {
		return nil
	}
	return invalid(field, "must be one of: %s", strings.Join(categoryNames, ", "))
}

func validateName(c *Collector, value string) {
	if err := ValidateText("name", value); err != nil {
		c.Add(err)
		return
	}
	if utf8.RuneCountInString(value) > MaxNameLength {
		c.Add(invalid("name", "exceeds maximum length of %d characters", MaxNameLength))
	}
}

// ValidateCreateScript validates a POST /api/scripts body.
// Name is optional; content, category and an owner identifier are required.
func ValidateCreateScript(req types.CreateScriptRequest) []ValidationError {
	var c Collector

	c.Add(ValidateOwner(req.Owner()))
	if err := ValidateRequired("content", req.Content); err != nil {
		c.Add(err)
	} else {
		c.Add(ValidateText("content", req.Content))
	}
	if err := ValidateRequired("category", string(req.Category)); err != nil {
		c.Add(err)
	} else {
		c.Add(ValidateCategory("category", req.Category))
	}
	if req.Name != "" {
		validateName(&c, req.Name)
	}

	return c.Errors()
}

// ValidateUpdateScript validates a PUT /api/scripts body.
func ValidateUpdateScript(req types.UpdateScriptRequest) []ValidationError {
	var c Collector

	if err := ValidateRequired("id", req.ID); err != nil {
		c.Add(err)
	} else {
		c.Add(ValidateID("id", req.ID))
	}
	c.Add(ValidateOwner(req.Owner()))

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			c.Add(invalid("name", "must not be blank"))
		} else {
			validateName(&c, *req.Name)
		}
	}
	if req.Content != nil {
		c.Add(ValidateText("content", *req.Content))
	}
	if req.Category != nil {
		c.Add(ValidateCategory("category", *req.Category))
	}
	if req.Patch().Empty() {
		c.Add(&ValidationError{
			Field:   "body",
			Message: "no fields to update",
		})
	}

	return c.Errors()
}

// ValidateScriptLocator validates the id and owner of a DELETE request.
func ValidateScriptLocator(id string, owner types.Owner) []ValidationError {
	var c Collector

	if err := ValidateRequired("id", id); err != nil {
		c.Add(err)
	} else {
		c.Add(ValidateID("id", id))
	}
	c.Add(ValidateOwner(owner))

	return c.Errors()
}

// ValidateSetPerformanceGoal validates a POST /api/performance-goals body.
// Every numeric threshold must be present; call_extend_allowed is optional.
func ValidateSetPerformanceGoal(req types.SetPerformanceGoalRequest) []ValidationError {
	var c Collector

	c.Add(ValidateOwner(req.Owner()))

	if err := ValidatePresent("overall_performance_goal", req.OverallPerformanceGoal); err != nil {
		c.Add(err)
	} else {
		c.Add(ValidateRange("overall_performance_goal", *req.OverallPerformanceGoal, 0, MaxGoalPercentage))
	}
	if err := ValidatePresent("number_of_calls_average", req.NumberOfCallsAverage); err != nil {
		c.Add(err)
	} else {
		c.Add(ValidateRange("number_of_calls_average", *req.NumberOfCallsAverage, 0, MaxCallsAverage))
	}
	if err := ValidatePresent("call_length", req.CallLength); err != nil {
		c.Add(err)
	} else {
		c.Add(ValidateRange("call_length", float64(*req.CallLength), 1, MaxCallLength))
	}

	return c.Errors()
}
