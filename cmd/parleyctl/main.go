// cmd/parleyctl/main.go
package main

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/model"
)

var (
	dbConnString string
	verbose      bool
)

const version = "0.3.0"

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbConnString, "db", "d", "", "Database connection string (defaults to DB_* environment)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(initDBCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)
}

var rootCmd = &cobra.Command{
	Use:   "parleyctl",
	Short: "parleyctl administers a Parley deployment",
	Long:  `parleyctl prepares the database and runs schema migrations for the Parley membership service.`,
}

func dsn() string {
	if dbConnString != "" {
		return dbConnString
	}
	cfg := config.Load()
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.SSLMode,
		cfg.Database.SearchPath,
	)
}

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Prepare database extensions",
	Long:  `Create the extensions the schema depends on (citext for case-insensitive emails, pgcrypto for uuid defaults). Requires a role allowed to CREATE EXTENSION.`,
	Run: func(cmd *cobra.Command, args []string) {
		db, err := sql.Open("postgres", dsn())
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()

		db.SetConnMaxLifetime(time.Minute)

		for _, stmt := range []string{
			"CREATE EXTENSION IF NOT EXISTS citext",
			"CREATE EXTENSION IF NOT EXISTS pgcrypto",
		} {
			if verbose {
				fmt.Println(stmt)
			}
			if _, err := db.Exec(stmt); err != nil {
				log.Fatalf("Failed to run %q: %v", stmt, err)
			}
		}

		fmt.Println("Database initialized")
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run schema migrations",
	Long:  `Migrate the identities, organizations, and users tables to the current schema.`,
	Run: func(cmd *cobra.Command, args []string) {
		db, err := gorm.Open(postgres.Open(dsn()), &gorm.Config{})
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}

		models := []any{
			&model.Identity{},
			&model.Organization{},
			&model.User{},
		}
		if err := db.AutoMigrate(models...); err != nil {
			log.Fatalf("Failed to migrate: %v", err)
		}

		if verbose {
			for _, m := range models {
				fmt.Printf("migrated %T\n", m)
			}
		}
		fmt.Println("Migrations complete")
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the parleyctl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("parleyctl " + version)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
