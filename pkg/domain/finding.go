package domain

// FindingLevel grades a validation finding.
type FindingLevel string

const (
	LevelSuccess FindingLevel = "success"
	LevelWarning FindingLevel = "warning"
	LevelError   FindingLevel = "error"
)

// Finding is one observation of the structural validator.
// Findings are advisory: a flow with error findings can still be edited and saved.
type Finding struct {
	Level   FindingLevel `json:"level"`
	Rule    string       `json:"rule"`
	Message string       `json:"message"`
	NodeID  string       `json:"nodeId,omitempty"`
	EdgeID  string       `json:"edgeId,omitempty"`
}

// CountLevels tallies findings per level.
func CountLevels(findings []Finding) map[FindingLevel]int {
	out := make(map[FindingLevel]int, 3)
	for _, f := range findings {
		out[f.Level]++
	}
	return out
}

// HasErrors reports whether any finding is an error.
func HasErrors(findings []Finding) bool {
	for _, f := range findings {
		if f.Level == LevelError {
			return true
		}
	}
	return false
}
