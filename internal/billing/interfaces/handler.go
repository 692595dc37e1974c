package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	billing "meterdata-cloud/internal/billing/domain"
	"meterdata-cloud/internal/observability/metrics"
)

// Reconciler produces a reconciled billing sequence for one account/meter.
type Reconciler interface {
	Reconcile(ctx context.Context, utility, accountNumber, meterNumber string) ([]billing.Datum, error)
}

// BillsHandler serves reconciled billing sequences as JSON.
type BillsHandler struct {
	reconciler Reconciler
	logger     *log.Logger
}

// NewBillsHandler constructs a bills handler.
func NewBillsHandler(reconciler Reconciler, logger *log.Logger) (*BillsHandler, error) {
	if reconciler == nil {
		return nil, errors.New("bills handler: nil reconciler")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &BillsHandler{reconciler: reconciler, logger: logger}, nil
}

// ServeHTTP handles GET /api/v1/bills.
func (h *BillsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	utility, accountNumber, meterNumber, err := billQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	bills, err := h.reconciler.Reconcile(r.Context(), utility, accountNumber, meterNumber)
	if err != nil {
		h.logger.Printf("bills: reconcile utility=%s account=%s error: %v", utility, accountNumber, err)
		http.Error(w, "reconcile error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"utility":       utility,
		"accountNumber": accountNumber,
		"bills":         bills,
	})
}

// BillExportHandler serves reconciled billing sequences as PDF or XLSX.
type BillExportHandler struct {
	reconciler Reconciler
	logger     *log.Logger
}

// NewBillExportHandler constructs an export handler.
func NewBillExportHandler(reconciler Reconciler, logger *log.Logger) (*BillExportHandler, error) {
	if reconciler == nil {
		return nil, errors.New("bill export handler: nil reconciler")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &BillExportHandler{reconciler: reconciler, logger: logger}, nil
}

// ServeHTTP handles GET /api/v1/bills/export.
func (h *BillExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	utility, accountNumber, meterNumber, err := billQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "pdf"
	}
	if format != "pdf" && format != "xlsx" {
		http.Error(w, "format must be pdf or xlsx", http.StatusBadRequest)
		return
	}

	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveBillExport(format, result, time.Since(start))
	}()

	bills, err := h.reconciler.Reconcile(r.Context(), utility, accountNumber, meterNumber)
	if err != nil {
		result = metrics.ResultError
		h.logger.Printf("bill export: reconcile utility=%s account=%s error: %v", utility, accountNumber, err)
		http.Error(w, "reconcile error", http.StatusInternalServerError)
		return
	}

	var payload []byte
	var contentType string
	switch format {
	case "xlsx":
		payload, err = BuildBillsXLSX(utility, accountNumber, bills)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		payload, err = BuildBillsPDF(utility, accountNumber, bills)
		contentType = "application/pdf"
	}
	if err != nil {
		result = metrics.ResultError
		h.logger.Printf("bill export: render %s error: %v", format, err)
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=bills-%s.%s", accountNumber, format))
	_, _ = w.Write(payload)
}

func billQuery(r *http.Request) (utility, accountNumber, meterNumber string, err error) {
	utility = r.URL.Query().Get("utility")
	if utility == "" {
		return "", "", "", errors.New("utility is required")
	}
	accountNumber = r.URL.Query().Get("account_number")
	if accountNumber == "" {
		return "", "", "", errors.New("account_number is required")
	}
	meterNumber = r.URL.Query().Get("meter_number")
	return utility, accountNumber, meterNumber, nil
}
