package uploader

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	billing "meterdata-cloud/internal/billing/domain"
	readings "meterdata-cloud/internal/readings/domain"
)

func TestUploadBills(t *testing.T) {
	var gotPath, gotMethod, gotAuth string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "secret-token")
	require.NoError(t, err)

	datum, err := billing.NewDatum(
		time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2019, 1, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2019, 2, 5, 0, 0, 0, 0, time.UTC),
		decimal.RequireFromString("120.00"))
	require.NoError(t, err)

	require.NoError(t, client.UploadBills(context.Background(), "default", "1001-A", "M-1", []billing.Datum{datum}))
	assert.Equal(t, "/api/v1/bills", gotPath)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "default", gotBody["utility"])
	assert.Len(t, gotBody["bills"], 1)
}

func TestUploadReadingsChunks(t *testing.T) {
	var calls int
	var sizes []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var body struct {
			Points []readingPayload `json:"points"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		sizes = append(sizes, len(body.Points))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "")
	require.NoError(t, err)

	batch := make([]readings.Reading, 2500)
	base := time.Date(2019, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := range batch {
		batch[i] = readings.Reading{
			MeterNumber: "M-1",
			Kind:        readings.KindUse,
			TS:          base.Add(time.Duration(i) * 15 * time.Minute),
			Value:       float64(i),
		}
	}

	require.NoError(t, client.UploadReadings(context.Background(), batch))
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1000, 1000, 500}, sizes)
}

func TestUploadBillsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "")
	require.NoError(t, err)

	datum, err := billing.NewDatum(
		time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2019, 1, 31, 0, 0, 0, 0, time.UTC),
		time.Time{},
		decimal.Zero)
	require.NoError(t, err)

	err = client.UploadBills(context.Background(), "default", "1001-A", "", []billing.Datum{datum})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http 500")
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient("", "token")
	require.Error(t, err)
}
