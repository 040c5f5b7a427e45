package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_Valid(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "toggle_and_switch.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "toggle_and_switch", s.Name)
	require.Len(t, s.Documents, 2)
	assert.Equal(t, DocumentSpec{ID: "file:///src/a.go", Lines: 50}, s.Documents[0])
	require.Len(t, s.Steps, 4)
	require.NotNil(t, s.Steps[0].Activate)
	assert.Equal(t, ActivateStep{Doc: "file:///src/a.go", Line: 10, Column: 2}, *s.Steps[0].Activate)
	assert.Equal(t, "numberedBookmarks.toggle3", s.Steps[1].Command)

	require.Len(t, s.Assertions, 4)
	assert.Equal(t, map[int]int{3: 10}, s.Assertions[3].Markers)
}

func TestLoadScenario_AllFixturesParse(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			_, err := LoadScenario(path)
			require.NoError(t, err)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    "name: x\ndescription: y\nsteps:\n  - command: a\nassertion: []\n",
			wantErr: "assertion",
		},
		{
			name:    "missing name",
			yaml:    "description: y\nsteps:\n  - command: a\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: x\nsteps:\n  - command: a\n",
			wantErr: "description is required",
		},
		{
			name:    "no steps",
			yaml:    "name: x\ndescription: y\n",
			wantErr: "steps list is required",
		},
		{
			name:    "two actions in one step",
			yaml:    "name: x\ndescription: y\nsteps:\n  - command: a\n    deactivate: true\n",
			wantErr: "exactly one action",
		},
		{
			name:    "empty step",
			yaml:    "name: x\ndescription: y\nsteps:\n  - {}\n",
			wantErr: "exactly one action",
		},
		{
			name:    "activate without doc",
			yaml:    "name: x\ndescription: y\nsteps:\n  - activate: { line: 1 }\n",
			wantErr: "activate.doc is required",
		},
		{
			name:    "document without id",
			yaml:    "name: x\ndescription: y\ndocuments:\n  - lines: 3\nsteps:\n  - command: a\n",
			wantErr: "id is required",
		},
		{
			name:    "unknown assertion",
			yaml:    "name: x\ndescription: y\nsteps:\n  - command: a\nassertions:\n  - type: nope\n",
			wantErr: "unknown assertion type",
		},
		{
			name:    "slot out of range",
			yaml:    "name: x\ndescription: y\nsteps:\n  - command: a\nassertions:\n  - type: slot\n    slot: 10\n    empty: true\n",
			wantErr: "out of range",
		},
		{
			name:    "slot with bookmark and empty",
			yaml:    "name: x\ndescription: y\nsteps:\n  - command: a\nassertions:\n  - type: slot\n    slot: 1\n    empty: true\n    bookmark: { doc: d, line: 1, column: 1 }\n",
			wantErr: "exactly one of bookmark or empty",
		},
		{
			name:    "trace_order without events",
			yaml:    "name: x\ndescription: y\nsteps:\n  - command: a\nassertions:\n  - type: trace_order\n",
			wantErr: "events list is required",
		},
		{
			name:    "notification without message",
			yaml:    "name: x\ndescription: y\nsteps:\n  - command: a\nassertions:\n  - type: notification\n    severity: info\n",
			wantErr: "message is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
