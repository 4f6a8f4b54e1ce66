package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgramVersion(t *testing.T) {
	v := ProgramVersion{Version: "1.2.0", CommitHash: "abc123", BuildTime: "2026-10-01"}
	assert.Equal(t, "v1.2.0-abc123", v.Short())
	assert.Contains(t, v.String(), "Version: v1.2.0")
	assert.Contains(t, v.String(), "Build Date: 2026-10-01")

	assert.Equal(t, Version, PV.Version)
}
