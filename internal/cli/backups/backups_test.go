package backups

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/habitguard/internal/backup"
	"github.com/julianstephens/habitguard/internal/cli"
	"github.com/julianstephens/habitguard/internal/constants"
	"github.com/julianstephens/habitguard/internal/storage/postgres"
	"github.com/julianstephens/habitguard/internal/storage/sqlite"
	"github.com/julianstephens/habitguard/internal/tracker"
)

func setupTestDB(t *testing.T) (*cli.Context, string) {
	t.Helper()
	dir := t.TempDir()
	store := sqlite.NewStore(filepath.Join(dir, "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := &cli.Context{Store: store, Tracker: tracker.New(store)}
	if _, err := ctx.Tracker.AddItem(tracker.NewItem{
		Name:  "Read",
		Kind:  constants.ItemKindHabit,
		Rules: []tracker.NewRule{{Name: "Comic", Kind: constants.RewardRecurring, Requirement: 3}},
	}); err != nil {
		t.Fatalf("failed to add item: %v", err)
	}
	return ctx, dir
}

func TestBackupCreateAndList(t *testing.T) {
	ctx, dir := setupTestDB(t)

	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatalf("backup create failed: %v", err)
	}
	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Fatalf("backup list failed: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, constants.BackupDirName))
	if err != nil {
		t.Fatalf("failed to read backup dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 backup, got %d", len(entries))
	}
}

func TestBackupCommandsRejectPostgres(t *testing.T) {
	ctx := &cli.Context{Store: postgres.New("postgres://u@localhost/habitguard")}

	if err := (&BackupCreateCmd{}).Run(ctx); err == nil {
		t.Error("expected backup create to refuse a PostgreSQL store")
	}
	if err := (&BackupRestoreCmd{BackupFile: "x.db", Yes: true}).Run(ctx); err == nil {
		t.Error("expected backup restore to refuse a PostgreSQL store")
	}
}

func TestResolveBackupPath(t *testing.T) {
	dir := t.TempDir()
	name := "habitguard-20260101-0900.db"
	full := filepath.Join(dir, name)
	if err := os.WriteFile(full, []byte("x"), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	got, err := resolveBackupPath(name, dir)
	if err != nil {
		t.Fatalf("resolveBackupPath by name failed: %v", err)
	}
	if got != full {
		t.Errorf("got %q, want %q", got, full)
	}

	if got, err := resolveBackupPath(full, t.TempDir()); err != nil || got != full {
		t.Errorf("absolute path: got %q, %v", got, err)
	}

	if _, err := resolveBackupPath("missing.db", dir); err == nil {
		t.Error("expected error for missing backup")
	}
}

func TestBackupRestoreCmd(t *testing.T) {
	ctx, _ := setupTestDB(t)

	mgr := backup.NewManager(ctx.Store.GetConfigPath())
	snapshot, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("failed to create backup: %v", err)
	}

	if err := (&BackupRestoreCmd{BackupFile: snapshot, Yes: true}).Run(ctx); err != nil {
		// another habitguard binary may be running on the test host
		if strings.Contains(err.Error(), backup.ErrInstanceRunning.Error()) {
			t.Skip("another habitguard process is running")
		}
		t.Fatalf("restore failed: %v", err)
	}
}

func TestExportCmd_JSON(t *testing.T) {
	ctx, dir := setupTestDB(t)
	out := filepath.Join(dir, "export.json")

	if err := (&ExportCmd{Format: constants.ExportFormatJSON, Output: out}).Run(ctx); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}
	var doc backup.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if len(doc.Data["items"]) != 1 {
		t.Errorf("expected 1 item row, got %d", len(doc.Data["items"]))
	}
	if len(doc.Data["reward_rules"]) != 1 {
		t.Errorf("expected 1 rule row, got %d", len(doc.Data["reward_rules"]))
	}
	if doc.App.Name != constants.AppName {
		t.Errorf("app name = %q", doc.App.Name)
	}
}

func TestExportCmd_YAML(t *testing.T) {
	ctx, dir := setupTestDB(t)
	out := filepath.Join(dir, "export.yaml")

	if err := (&ExportCmd{Format: constants.ExportFormatYAML, Output: out}).Run(ctx); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("export is not valid YAML: %v", err)
	}
	if _, ok := doc["schemaVersion"]; !ok {
		t.Error("missing schemaVersion key")
	}
}
