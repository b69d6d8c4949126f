package models

// AnalysisResult is the color-season analysis shown to the user.
// It is a transient display payload: created per request, never stored.
type AnalysisResult struct {
	Season      string   `json:"season"`
	Description string   `json:"description"`
	BestColors  []string `json:"bestColors"`
	WorstColor  string   `json:"worstColor"`
	YogaTitle   string   `json:"yogaTitle"`
	YogaText    string   `json:"yogaText"`

	// IsDemo marks a substituted fallback profile rather than a live
	// inference result.
	IsDemo bool `json:"isDemo,omitempty"`
}

// Clone returns a deep copy of the result.
func (r AnalysisResult) Clone() AnalysisResult {
	out := r
	if r.BestColors != nil {
		out.BestColors = append([]string(nil), r.BestColors...)
	}
	return out
}

// AsDemo returns a copy of the result flagged as a demo substitution.
func (r AnalysisResult) AsDemo() AnalysisResult {
	out := r.Clone()
	out.IsDemo = true
	return out
}
