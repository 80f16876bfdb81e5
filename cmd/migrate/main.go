package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/damoang/angple-blog/internal/config"
	"github.com/damoang/angple-blog/internal/migration"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "configs/config.dev.yaml", "config file path")
	dryRun := flag.Bool("dry-run", false, "show which tables would be created without executing")
	verify := flag.Bool("verify", false, "report redirect loops and duplicate revision numbers")
	verbose := flag.Bool("verbose", false, "verbose SQL logging")
	flag.Parse()

	loaded := config.LoadDotEnv(os.Getenv("APP_ENV"))
	if len(loaded) == 0 {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logLevel := gormlogger.Warn
	if *verbose {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(mysql.Open(cfg.Database.GetDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get underlying DB: %v", err)
	}
	defer sqlDB.Close()

	switch {
	case *dryRun:
		runDryRun(db)
	case *verify:
		if !runVerify(db) {
			sqlDB.Close()
			os.Exit(1)
		}
	default:
		if err := migration.Run(db); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migration completed")
	}
}

func runDryRun(db *gorm.DB) {
	for _, model := range migration.Models() {
		name := tableName(db, model)
		if db.Migrator().HasTable(model) {
			log.Printf("[dry-run] %s: exists, columns may be added", name)
		} else {
			log.Printf("[dry-run] %s: would be created", name)
		}
	}
}

func runVerify(db *gorm.DB) bool {
	report, err := migration.Verify(context.Background(), db)
	if err != nil {
		log.Printf("[verify] failed: %v", err)
		return false
	}

	log.Printf("[verify] %d redirect rule(s) checked", report.RedirectRules)
	for _, id := range report.SelfRedirects {
		log.Printf("[verify] self redirect: rule #%d", id)
	}
	for _, cycle := range report.RedirectCycles {
		log.Printf("[verify] redirect loop: %s", strings.Join(cycle, " -> "))
	}
	for _, d := range report.DuplicateRevisions {
		log.Printf("[verify] %s:%d holds revision #%d %d times", d.OwnerType, d.OwnerID, d.RevisionNumber, d.Count)
	}

	if report.OK() {
		log.Println("[verify] OK")
		return true
	}
	fmt.Fprintf(os.Stderr, "[verify] %d self redirect(s), %d loop(s), %d duplicate revision number(s)\n",
		len(report.SelfRedirects), len(report.RedirectCycles), len(report.DuplicateRevisions))
	return false
}

func tableName(db *gorm.DB, model interface{}) string {
	if t, ok := model.(schema.Tabler); ok {
		return t.TableName()
	}
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return fmt.Sprintf("%T", model)
	}
	return stmt.Schema.Table
}
