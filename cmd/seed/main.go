// main.go
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

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/localnerve/haven/data"
	"github.com/localnerve/haven/internal/app"
	"github.com/localnerve/haven/internal/cache"
	"github.com/localnerve/haven/internal/config"
	"github.com/localnerve/haven/internal/database"
	"github.com/localnerve/haven/internal/seed"
	"github.com/localnerve/haven/internal/services"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var file string
	var migrate bool

	root := &cobra.Command{
		Use:   "seed",
		Short: "Load reference data into the haven database",
		Long: `Upserts prompts, specialists, greetings, intake questions and resources by natural key.
The embedded defaults are used unless --file names a YAML document.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&file, "file", "f", "", "YAML seed file to apply instead of the embedded defaults")
	root.PersistentFlags().BoolVar(&migrate, "migrate", true, "run schema migrations before seeding")

	run := func(sections ...string) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			bundle, err := loadBundle(file)
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			db, err := database.Connect(cfg)
			if err != nil {
				return err
			}
			defer database.Close(db)

			if migrate {
				if err := database.AutoMigrate(db); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
			}

			result, err := newSeeder(cfg, db).Apply(cmd.Context(), bundle, sections...)
			if err != nil {
				return err
			}
			for _, section := range seed.AllSections {
				if n, ok := result[section]; ok {
					cmd.Printf("%-12s %d\n", section, n)
				}
			}
			return nil
		}
	}

	root.AddCommand(&cobra.Command{
		Use:   "all",
		Short: "Apply every section",
		Args:  cobra.NoArgs,
		RunE:  run(seed.AllSections...),
	})
	for _, section := range seed.AllSections {
		root.AddCommand(&cobra.Command{
			Use:   section,
			Short: "Apply the " + section + " section",
			Args:  cobra.NoArgs,
			RunE:  run(section),
		})
	}

	return root
}

func loadBundle(file string) (seed.Bundle, error) {
	if file == "" {
		return seed.LoadFS(data.Seed, data.SeedDir)
	}
	log.Printf("Loading seed data from %s", file)
	b, err := os.ReadFile(file)
	if err != nil {
		return seed.Bundle{}, err
	}
	bundle, err := seed.Parse(b)
	if err != nil {
		return seed.Bundle{}, fmt.Errorf("%s: %w", file, err)
	}
	return bundle, nil
}

// newSeeder invalidates the shared prompt cache when Redis is configured
func newSeeder(cfg *config.Config, db *gorm.DB) *seed.Seeder {
	catalog := &services.Catalog{DB: db, TTL: cfg.CacheTTL}
	if cfg.RedisURL != "" {
		if rc, err := cache.NewRedisCache(cfg.RedisURL, app.CachePrefix); err != nil {
			log.Printf("Redis unavailable, cached prompts expire after %v: %v", cfg.CacheTTL, err)
		} else {
			catalog.Cache = rc
		}
	}
	return &seed.Seeder{DB: db, Catalog: catalog}
}
