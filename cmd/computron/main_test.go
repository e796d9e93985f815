package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/zurustar/computron/pkg/app"
	"github.com/zurustar/computron/pkg/level"
	"github.com/zurustar/computron/pkg/logger"
)

func TestEmbeddedLevelsLoad(t *testing.T) {
	files, err := embeddedLevels.ReadDir("levels")
	if err != nil {
		t.Fatal(err)
	}

	reg := level.NewRegistry(embeddedLevels, app.LevelDir, level.WithRegistryLogger(logger.Discard()))
	if got := len(reg.Levels()); got != len(files) || got == 0 {
		t.Fatalf("registry loaded %d of %d embedded levels", got, len(files))
	}
	for _, e := range reg.Levels() {
		if _, err := e.Level.Materialize(level.WithLogger(logger.Discard())); err != nil {
			t.Errorf("%s: %v", e.Name, err)
		}
	}
}

// 埋め込みレベルはすべてゴールの手数内で解ける
func TestEmbeddedLevelsSolvable(t *testing.T) {
	tests := []struct {
		level string
		input []string
	}{
		{"01-first-steps", []string{"link 0 R"}},
		{"02-sorting-hat", []string{"link 3 OUT"}},
		{"03-reverse", []string{
			"insert no-op 0",
			"link 1 IN",
			"link 2 OUT",
			"jump jump-if 2",
			"move 3 4",
			"cond 2 hand-empty",
			"jump jump 4 0",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			for _, name := range []string{"HEADLESS", "TIMEOUT", "LOG_LEVEL", "MAX_STEPS", "SOUNDFONT"} {
				t.Setenv(name, "")
			}
			input := strings.Join(append(tt.input, "run", "eval", "quit"), "\n")
			out := &bytes.Buffer{}
			a := app.New(embeddedLevels, app.WithIO(strings.NewReader(input), out))

			if err := a.Run([]string{"--headless", "--log-level", "error", "--level", tt.level}); err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if !strings.Contains(out.String(), "solved in") || strings.Contains(out.String(), "error:") {
				t.Errorf("level not solved:\n%s", out.String())
			}
		})
	}
}
