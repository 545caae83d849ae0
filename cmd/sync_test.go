package cmd

import (
	"bytes"
	"strings"
	"testing"

	"ioc-sync/core/policy"

	"github.com/stretchr/testify/assert"
)

func TestConfirmWrite(t *testing.T) {
	global := policy.ResolveScope(nil, nil, false)
	scoped := policy.ResolveScope([]string{"pilot"}, nil, false)

	tests := []struct {
		name  string
		scope policy.Scope
		input string
		want  bool
	}{
		{"GlobalConfirmed", global, "GLOBAL\n", true},
		{"GlobalLowercaseRejected", global, "global\n", false},
		{"GlobalYesRejected", global, "yes\n", false},
		{"ScopedYes", scoped, " YES \n", true},
		{"ScopedNo", scoped, "no\n", false},
		{"NoInput", scoped, "", false},
		{"NoTrailingNewline", scoped, "yes", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got := confirmWrite(strings.NewReader(tt.input), &out, policy.StageDeploy, tt.scope)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "'DEPLOY' mode")
		})
	}
}

func TestConfirmWrite_ScopeWarning(t *testing.T) {
	var out bytes.Buffer
	confirmWrite(strings.NewReader("\n"), &out, policy.StageReport, policy.ResolveScope(nil, nil, false))
	assert.Contains(t, out.String(), "Global Scope")
}

func TestFirstPositive(t *testing.T) {
	assert.Equal(t, 10, firstPositive(0, 10))
	assert.Equal(t, 3, firstPositive(3, 10))
	assert.Equal(t, 0, firstPositive(0, -1))
}
