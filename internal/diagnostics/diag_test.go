package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coreman2200/arcaluminis-opc/internal/output"
)

func codes(ds []Diagnostic) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Code
	}
	return out
}

func TestFromHealth(t *testing.T) {
	ok := output.Health{Device: "opc", SupportsConnState: true, Connected: true, Status: "Target IP 1.2.3.4:7890"}
	assert.Equal(t, []string{"OUTPUT.OK"}, codes(FromHealth(ok)))

	down := output.Health{Device: "opc", SupportsConnState: true, Status: "Not connected!", LastError: "connection refused"}
	ds := FromHealth(down)
	assert.Equal(t, []string{"OUTPUT.NOT_CONNECTED"}, codes(ds))
	assert.Equal(t, Err, ds[0].Severity)
	assert.Equal(t, "connection refused", ds[0].Detail)

	flaky := ok
	flaky.Errors = 3
	assert.Equal(t, []string{"OUTPUT.SEND_ERRORS"}, codes(FromHealth(flaky)))

	// local mirrors have no connection to lose
	mirror := output.Health{Status: "screen"}
	assert.Equal(t, []string{"OUTPUT.OK"}, codes(FromHealth(mirror)))
}
