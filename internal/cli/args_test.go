package cli

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/nyc-warehouse/snapload/pkg/snapload"
)

func TestOptionalSourceDir(t *testing.T) {
	cmd := &cobra.Command{
		Use: "load [source_dir]",
	}

	t.Run("accepts no args", func(t *testing.T) {
		if err := OptionalSourceDir(cmd, nil); err != nil {
			t.Errorf("expected nil, got: %v", err)
		}
	})

	t.Run("accepts one arg", func(t *testing.T) {
		if err := OptionalSourceDir(cmd, []string{"./data/raw"}); err != nil {
			t.Errorf("expected nil, got: %v", err)
		}
	})

	t.Run("returns usage error when too many args", func(t *testing.T) {
		err := OptionalSourceDir(cmd, []string{"a", "b"})
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "Example:") {
			t.Errorf("expected error to contain 'Example:', got: %s", err.Error())
		}
		if code := snapload.ExitCodeForError(err); code != snapload.ExitUsageError {
			t.Errorf("expected exit code %d (usage), got %d", snapload.ExitUsageError, code)
		}
	})
}

func TestRequireConfigDir(t *testing.T) {
	cmd := &cobra.Command{Use: "init [dir]"}

	if err := RequireConfigDir(cmd, []string{"."}); err != nil {
		t.Errorf("expected nil, got: %v", err)
	}
	err := RequireConfigDir(cmd, []string{"a", "b"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if code := snapload.ExitCodeForError(err); code != snapload.ExitUsageError {
		t.Errorf("expected exit code %d (usage), got %d", snapload.ExitUsageError, code)
	}
}
