// Command reconcile runs billing reconciliation for one account against the
// statement warehouse and writes the resulting sequence to CSV files. With
// -upload-url it also pushes the sequence to the upstream platform.
package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	billing "meterdata-cloud/internal/billing/domain"
	"meterdata-cloud/internal/uploader"
	urjapp "meterdata-cloud/internal/urjanet/application"
	urjanet "meterdata-cloud/internal/urjanet/domain"
	urjrepo "meterdata-cloud/internal/urjanet/infrastructure/postgres"
)

const dayLayout = "2006-01-02"

type config struct {
	dbURL         string
	utility       string
	accountNumber string
	meterNumber   string
	profilePath   string
	outDir        string
	uploadURL     string
	uploadToken   string
}

func main() {
	cfg := parseFlags()
	logger := log.New(os.Stderr, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.dbURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	profiles, err := urjapp.LoadProfiles(cfg.profilePath)
	if err != nil {
		logger.Fatalf("profiles error: %v", err)
	}
	sink := &urjanet.CaptureSink{}
	service, err := urjapp.NewReconcileService(urjrepo.NewWarehouseRepository(db), profiles, sink)
	if err != nil {
		logger.Fatalf("service error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	bills, err := service.Reconcile(ctx, cfg.utility, cfg.accountNumber, cfg.meterNumber)
	if err != nil {
		logger.Fatalf("reconcile error: %v", err)
	}
	logger.Printf("reconciled %d periods, %d diagnostics", len(bills), len(sink.Events))
	for _, d := range sink.Events {
		logger.Printf("diagnostic kind=%s %s", d.Kind, d.Message)
	}

	if err := os.MkdirAll(cfg.outDir, 0o755); err != nil {
		logger.Fatalf("mkdir error: %v", err)
	}
	if err := writeBillsCSV(filepath.Join(cfg.outDir, "bills.csv"), bills); err != nil {
		logger.Fatalf("write bills error: %v", err)
	}
	if err := writeItemsCSV(filepath.Join(cfg.outDir, "items.csv"), bills); err != nil {
		logger.Fatalf("write items error: %v", err)
	}

	if cfg.uploadURL != "" {
		client, err := uploader.NewClient(cfg.uploadURL, cfg.uploadToken)
		if err != nil {
			logger.Fatalf("uploader error: %v", err)
		}
		if err := client.UploadBills(ctx, cfg.utility, cfg.accountNumber, cfg.meterNumber, bills); err != nil {
			logger.Fatalf("upload error: %v", err)
		}
		logger.Printf("uploaded %d periods to %s", len(bills), cfg.uploadURL)
	}
}

func parseFlags() config {
	var cfg config
	flag.StringVar(&cfg.dbURL, "db", os.Getenv("DATABASE_URL"), "postgres connection string")
	flag.StringVar(&cfg.utility, "utility", "", "utility provider name")
	flag.StringVar(&cfg.accountNumber, "account", "", "account number")
	flag.StringVar(&cfg.meterNumber, "meter", "", "meter number (empty for all meters)")
	flag.StringVar(&cfg.profilePath, "profiles", os.Getenv("PROFILE_CONFIG_PATH"), "profile overrides YAML path")
	flag.StringVar(&cfg.outDir, "out", "reconcile-out", "output directory")
	flag.StringVar(&cfg.uploadURL, "upload-url", "", "upstream base URL (optional)")
	flag.StringVar(&cfg.uploadToken, "upload-token", os.Getenv("UPLOAD_TOKEN"), "upstream bearer token")
	flag.Parse()

	if cfg.dbURL == "" || cfg.utility == "" || cfg.accountNumber == "" {
		fmt.Fprintln(os.Stderr, "usage: reconcile -db <dsn> -utility <name> -account <number> [-meter <number>]")
		os.Exit(2)
	}
	return cfg
}

func writeBillsCSV(path string, bills []billing.Datum) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"start", "end", "statement", "cost", "used", "peak", "source_links"}); err != nil {
		return err
	}
	for _, bill := range bills {
		record := []string{
			bill.Start.Format(dayLayout),
			bill.End.Format(dayLayout),
			bill.Statement.Format(dayLayout),
			bill.Cost.StringFixed(2),
			formatOptional(bill.Used),
			formatOptional(bill.Peak),
			strconv.Itoa(len(bill.SourceLinks)),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	return writer.Error()
}

func writeItemsCSV(path string, bills []billing.Datum) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"period_start", "description", "kind", "unit", "quantity", "rate", "total"}); err != nil {
		return err
	}
	for _, bill := range bills {
		for _, item := range bill.Items {
			record := []string{
				bill.Start.Format(dayLayout),
				item.Description,
				string(item.Kind),
				item.Unit,
				strconv.FormatFloat(item.Quantity, 'f', -1, 64),
				strconv.FormatFloat(item.Rate, 'f', -1, 64),
				item.Total.StringFixed(2),
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
	}
	return writer.Error()
}

func formatOptional(value *float64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatFloat(*value, 'f', -1, 64)
}
