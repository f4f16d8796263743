package db

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/pysugar/notion-nexus/internal/db/models"
)

func TestInitDB(t *testing.T) {
	gdb, err := InitDB(filepath.Join(t.TempDir(), "nexus.db"))
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}

	// Migrations must have created both tables.
	if !gdb.Migrator().HasTable(&models.NotionCredential{}) {
		t.Error("notion_credentials table missing")
	}
	if !gdb.Migrator().HasTable(&models.Setting{}) {
		t.Error("settings table missing")
	}

	key := GetAPIKey(gdb)
	if !strings.HasPrefix(key, "sk-") || len(key) != 35 {
		t.Errorf("bootstrap api key malformed: %q", key)
	}
}

func TestInitDB_APIKeyIsStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nexus.db")

	first, err := InitDB(path)
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	key := GetAPIKey(first)

	second, err := InitDB(path)
	if err != nil {
		t.Fatalf("InitDB reopen: %v", err)
	}
	if got := GetAPIKey(second); got != key {
		t.Errorf("api key changed across restarts: %q != %q", got, key)
	}
}

func TestSettings(t *testing.T) {
	gdb, err := InitDB(filepath.Join(t.TempDir(), "nexus.db"))
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}

	if v, err := GetSetting(gdb, "missing"); err != nil || v != "" {
		t.Fatalf("unset key should read empty: %q, %v", v, err)
	}

	if err := SetSetting(gdb, "k", "v1"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := SetSetting(gdb, "k", "v2"); err != nil {
		t.Fatalf("SetSetting overwrite: %v", err)
	}
	if v, _ := GetSetting(gdb, "k"); v != "v2" {
		t.Fatalf("value = %q, want v2", v)
	}

	if err := DeleteSetting(gdb, "k"); err != nil {
		t.Fatalf("DeleteSetting: %v", err)
	}
	if v, _ := GetSetting(gdb, "k"); v != "" {
		t.Fatalf("deleted key still reads %q", v)
	}
	if err := DeleteSetting(gdb, "k"); err != nil {
		t.Fatalf("deleting a missing key must not fail: %v", err)
	}
}
