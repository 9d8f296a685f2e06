package cli

import (
	"context"
	"io"
	"strings"
	"testing"

	"quiz-testing-service/internal/config"
)

func TestRootRegistersSubcommands(t *testing.T) {
	cmd := newRootCmd()
	want := map[string]bool{"start": false, "migrate": false, "import": false}
	for _, sub := range cmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("missing subcommand %q", name)
		}
	}
}

func TestImportRequiresFlags(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"import"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "required flag") {
		t.Fatalf("expected required flag error, got %v", err)
	}
}

func TestMigrateNeedsPostgresURL(t *testing.T) {
	if err := runMigrationsWithConfig(context.Background(), config.Config{}); err == nil {
		t.Fatalf("expected error without postgres url")
	}
}
