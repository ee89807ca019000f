package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const bootApp = `application: {
	on_start_up: [{action: "TransitionTo", target: "~//main"}]
}
`

const timerScene = `scene: {
	ingredients: [
		{number: 1, class: "link", link: {
			event: "UserInput"
			data:  15
			effect: [{action: "SetTimer", target: 0, args: [7, 500]}]
		}},
		{number: 2, class: "link", link: {
			event: "TimerFired"
			data:  7
			effect: [{action: "SetVariable", target: 3, args: [42]}]
		}},
		{number: 3, class: "integer", value: 0},
	]
}
`

// writeFiles creates files (relative name → contents) below dir.
func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

// createTestCarousel writes a two-group carousel that boots into a scene
// with a timer link.
func createTestCarousel(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "carousel")
	writeFiles(t, dir, map[string]string{
		"a.cue":    bootApp,
		"main.cue": timerScene,
	})
	return dir
}
