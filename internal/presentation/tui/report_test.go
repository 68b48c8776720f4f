package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jPabloBC/ingenit-flows/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindingsMarkdown_OrdersErrorsFirst(t *testing.T) {
	findings := []domain.Finding{
		{Level: domain.LevelSuccess, Rule: "start-node", Message: "flow has a start node"},
		{Level: domain.LevelWarning, Rule: "isolated-nodes", Message: "1 isolated node(s)"},
		{Level: domain.LevelError, Rule: "end-nodes", Message: "flow has no end nodes"},
	}

	md := FindingsMarkdown("welcome", findings)
	assert.Contains(t, md, "# welcome")
	assert.Contains(t, md, "**1 error(s), 1 warning(s), 1 check(s) passed**")

	errAt := strings.Index(md, "end-nodes")
	warnAt := strings.Index(md, "isolated-nodes")
	okAt := strings.Index(md, "start-node")
	assert.Less(t, errAt, warnAt)
	assert.Less(t, warnAt, okAt)
}

func TestPrintReport_RawWithoutRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintReport(&buf, "f", nil, nil))
	assert.Equal(t, FindingsMarkdown("f", nil), buf.String())
}

func TestStatus_KeepsText(t *testing.T) {
	assert.Contains(t, Status(domain.FlowValidated), "VALIDATED")
	assert.Contains(t, Status(domain.FlowPending), "PENDING")
}
