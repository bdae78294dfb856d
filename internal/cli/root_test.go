package cli

import "testing"

func TestNewRootCommand_Structure(t *testing.T) {
	cmd := NewRootCommand()

	if cmd.Use != "chronicle" {
		t.Errorf("Use = %q, want %q", cmd.Use, "chronicle")
	}

	want := []string{"serve", "replicate", "sync", "post", "resource", "log"}
	for _, name := range want {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestNewRootCommand_GlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	db := cmd.PersistentFlags().Lookup("database")
	if db == nil {
		t.Fatal("--database flag not registered")
	}
	if db.DefValue != "chronicle.db" {
		t.Errorf("--database default = %q, want %q", db.DefValue, "chronicle.db")
	}

	if cmd.PersistentFlags().Lookup("verbose") == nil {
		t.Error("--verbose flag not registered")
	}
}
