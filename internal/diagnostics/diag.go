package diagnostics

import "github.com/coreman2200/arcaluminis-opc/internal/output"

// Severity grades a Diagnostic.
type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

// Diagnostic is one finding about the running system, as pushed to /diag.
type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// FromHealth explains an output's health. A healthy output yields a single
// info entry.
func FromHealth(h output.Health) []Diagnostic {
	ev := map[string]any{"device": h.Device, "state": h.State, "errors": h.Errors}

	var out []Diagnostic
	if h.SupportsConnState && !h.Connected {
		out = append(out, Diagnostic{
			Severity: Err,
			Code:     "OUTPUT.NOT_CONNECTED",
			Summary:  h.Status,
			Detail:   h.LastError,
			LikelyCauses: []string{
				"controller is offline or unreachable",
				"wrong host or port in config",
			},
			SuggestedFixes: []string{
				"check opc.host / opc.port",
				"restart after the controller is up, the connection is not retried",
			},
			Evidence: ev,
		})
	}
	if h.Errors > 0 {
		out = append(out, Diagnostic{
			Severity:     Warn,
			Code:         "OUTPUT.SEND_ERRORS",
			Summary:      "frames failed to send",
			Detail:       h.LastError,
			LikelyCauses: []string{"controller closed the connection", "network dropped"},
			Evidence:     ev,
		})
	}
	if len(out) == 0 {
		out = append(out, Diagnostic{Severity: Info, Code: "OUTPUT.OK", Summary: h.Status, Evidence: ev})
	}
	return out
}
