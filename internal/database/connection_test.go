// connection_test.go
//
// Haven, a mental health support backend: AI chat, intake, community and therapist matching
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of haven.
// haven is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// haven is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with haven.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package database

import (
	"path/filepath"
	"testing"

	"github.com/localnerve/haven/internal/config"
	"github.com/localnerve/haven/internal/models"
)

func TestDialectorSelection(t *testing.T) {
	cases := map[string]string{
		"postgres":  "postgres",
		"supabase":  "postgres",
		"mysql":     "mysql",
		"mariadb":   "mysql",
		"sqlite":    "sqlite",
		"sqlserver": "sqlserver",
	}

	for dbType, expected := range cases {
		cfg := &config.Config{
			DBType:     dbType,
			DBHost:     "localhost",
			DBPort:     "5432",
			DBDatabase: "haven",
			DBUser:     "haven",
			DBPassword: "p@ss word",
			DBSSLMode:  "disable",
		}
		d, err := Dialector(cfg)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", dbType, err)
		}
		if d.Name() != expected {
			t.Errorf("%s: expected dialector %s, got %s", dbType, expected, d.Name())
		}
	}

	if _, err := Dialector(&config.Config{DBType: "oracle"}); err == nil {
		t.Error("Expected error for unsupported database type")
	}
}

func TestConnectAndMigratePureSqlite(t *testing.T) {
	cfg := &config.Config{
		DBType:            "sqlite-pure",
		DBDatabase:        filepath.Join(t.TempDir(), "haven.db"),
		DBConnectionLimit: 2,
	}

	db, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer Close(db)

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate failed: %v", err)
	}

	if err := Ping(db); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	for _, m := range models.PersistentModels() {
		if !db.Migrator().HasTable(m) {
			t.Errorf("Expected table for %T", m)
		}
	}
}
