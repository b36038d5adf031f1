package domain

import (
	"encoding/json"
	"time"
)

// TestSuite groups the test cases generated for one requirement group.
type TestSuite struct {
	ID            string
	ProjectID     string
	RequirementID string
	Name          string
	Lang          string
	Method        HTTPMethod
	URL           string
	CreatedAt     time.Time
}

// TestCase is a single generated test case. Payload holds the JSON object
// produced by the model.
type TestCase struct {
	ID        string
	SuiteID   string
	Position  int
	Payload   json.RawMessage
	CreatedAt time.Time
}
