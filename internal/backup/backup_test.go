package backup

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-ps"
	_ "modernc.org/sqlite"

	"github.com/julianstephens/habitguard/internal/constants"
	"github.com/julianstephens/habitguard/internal/storage/sqlite"
)

type fakeProcess struct {
	pid  int
	exec string
}

func (p fakeProcess) Pid() int           { return p.pid }
func (p fakeProcess) PPid() int          { return 1 }
func (p fakeProcess) Executable() string { return p.exec }

// setupTestDB creates an initialised database and stubs the clock and
// process list so every backup gets its own minute.
func setupTestDB(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "habitguard.db")
	store := sqlite.NewStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init database: %v", err)
	}
	store.Close()

	clock := time.Date(2024, 3, 1, 8, 0, 0, 0, time.Local)
	origNow, origProcs := nowFunc, processesFunc
	nowFunc = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	processesFunc = func() ([]ps.Process, error) {
		return []ps.Process{fakeProcess{pid: os.Getpid(), exec: constants.AppName}}, nil
	}
	t.Cleanup(func() { nowFunc, processesFunc = origNow, origProcs })

	return dbPath
}

func countItems(t *testing.T, dbPath string) int {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM items").Scan(&n); err != nil {
		t.Fatalf("failed to count items: %v", err)
	}
	return n
}

func insertItem(t *testing.T, dbPath, id string) {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(`INSERT INTO items (id, name, kind, polarity, priority, created_at)
		VALUES (?, ?, 'habit', 'good', 0, ?)`, id, "item "+id, time.Now().Format(time.RFC3339)); err != nil {
		t.Fatalf("failed to insert item: %v", err)
	}
}

func TestCreateBackup(t *testing.T) {
	dbPath := setupTestDB(t)
	insertItem(t, dbPath, "a")

	mgr := NewManager(dbPath)
	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	if filepath.Dir(backupPath) != mgr.GetBackupDir() {
		t.Errorf("backup written outside backup dir: %s", backupPath)
	}
	if got := countItems(t, backupPath); got != 1 {
		t.Errorf("expected 1 item in backup, got %d", got)
	}
}

func TestBackupRotation(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)

	for i := 0; i < constants.MaxBackups+3; i++ {
		if _, err := mgr.CreateBackup(); err != nil {
			t.Fatalf("CreateBackup %d failed: %v", i, err)
		}
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != constants.MaxBackups {
		t.Errorf("expected %d backups after rotation, got %d", constants.MaxBackups, len(backups))
	}
	for i := 1; i < len(backups); i++ {
		if backups[i].Timestamp.After(backups[i-1].Timestamp) {
			t.Errorf("backups not sorted newest first at %d", i)
		}
	}
}

func TestUniqueBackupFilenames(t *testing.T) {
	dbPath := setupTestDB(t)
	fixed := time.Date(2024, 3, 1, 8, 0, 0, 0, time.Local)
	nowFunc = func() time.Time { return fixed }

	mgr := NewManager(dbPath)
	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		path, err := mgr.CreateBackup()
		if err != nil {
			t.Fatalf("CreateBackup failed: %v", err)
		}
		if seen[path] {
			t.Errorf("duplicate backup path %s", path)
		}
		seen[path] = true
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 3 {
		t.Errorf("expected 3 listed backups, got %d", len(backups))
	}
}

func TestParseBackupName(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"habitguard-20240301-0800.db", true},
		{"habitguard-20240301-080000.db", true},
		{"habitguard-20240301-080000-2.db", true},
		{"habitguard-notadate.db", false},
		{"other-20240301-0800.db", false},
		{"habitguard-20240301-0800.sqlite", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := parseBackupName(tt.name); ok != tt.ok {
				t.Errorf("parseBackupName(%q) ok = %v, want %v", tt.name, ok, tt.ok)
			}
		})
	}
}

func TestRestoreBackup(t *testing.T) {
	dbPath := setupTestDB(t)
	insertItem(t, dbPath, "a")

	mgr := NewManager(dbPath)
	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	insertItem(t, dbPath, "b")
	if got := countItems(t, dbPath); got != 2 {
		t.Fatalf("expected 2 items before restore, got %d", got)
	}

	preRestore, err := mgr.RestoreBackup(backupPath)
	if err != nil {
		t.Fatalf("RestoreBackup failed: %v", err)
	}

	if got := countItems(t, dbPath); got != 1 {
		t.Errorf("expected 1 item after restore, got %d", got)
	}
	if preRestore == "" {
		t.Fatal("expected a pre-restore snapshot")
	}
	if got := countItems(t, preRestore); got != 2 {
		t.Errorf("expected pre-restore snapshot to hold 2 items, got %d", got)
	}
}

func TestRestoreRefusesWhileRunning(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)
	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	processesFunc = func() ([]ps.Process, error) {
		return []ps.Process{
			fakeProcess{pid: os.Getpid(), exec: constants.AppName},
			fakeProcess{pid: os.Getpid() + 1, exec: constants.AppName},
		}, nil
	}

	if _, err := mgr.RestoreBackup(backupPath); !errors.Is(err, ErrInstanceRunning) {
		t.Errorf("expected ErrInstanceRunning, got %v", err)
	}
}

func TestRestoreWithInvalidBackup(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)

	t.Run("missing file", func(t *testing.T) {
		if _, err := mgr.RestoreBackup(filepath.Join(t.TempDir(), "nope.db")); err == nil {
			t.Error("expected error for missing backup")
		}
	})

	t.Run("not a habitguard database", func(t *testing.T) {
		other := filepath.Join(t.TempDir(), "other.db")
		db, err := sql.Open("sqlite", other)
		if err != nil {
			t.Fatalf("failed to open: %v", err)
		}
		if _, err := db.Exec("CREATE TABLE unrelated (id INTEGER)"); err != nil {
			t.Fatalf("failed to create table: %v", err)
		}
		db.Close()

		if _, err := mgr.RestoreBackup(other); err == nil {
			t.Error("expected error for foreign database")
		}
	})

	t.Run("garbage file", func(t *testing.T) {
		garbage := filepath.Join(t.TempDir(), "garbage.db")
		if err := os.WriteFile(garbage, []byte("not sqlite at all, just text"), 0600); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
		if _, err := mgr.RestoreBackup(garbage); err == nil {
			t.Error("expected error for corrupted backup")
		}
	})
}

func TestBackupWithNoDatabase(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "missing.db"))
	if _, err := mgr.CreateBackup(); err == nil {
		t.Error("expected error when database does not exist")
	}
}
