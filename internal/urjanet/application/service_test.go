package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	urjanet "meterdata-cloud/internal/urjanet/domain"
)

type fakeWarehouse struct {
	statements []urjanet.Account
	err        error

	gotUtility string
	gotAccount string
}

func (f *fakeWarehouse) LoadStatements(_ context.Context, utility, accountNumber string) ([]urjanet.Account, error) {
	f.gotUtility = utility
	f.gotAccount = accountNumber
	return f.statements, f.err
}

func TestReconcileServiceRunsEngine(t *testing.T) {
	stmt := statement(1, date(2019, 2, 5), date(2019, 1, 1), date(2019, 2, 1), "s3://jan.pdf")
	stmt.Meters = []urjanet.Meter{{
		MeterNumber: "M-1",
		Charges:     []urjanet.Charge{charge("Energy Charge", "80.00", date(2019, 1, 1), date(2019, 2, 1))},
	}}
	warehouse := &fakeWarehouse{statements: []urjanet.Account{stmt}}

	profiles, err := LoadProfiles("")
	require.NoError(t, err)
	service, err := NewReconcileService(warehouse, profiles, nil)
	require.NoError(t, err)

	bills, err := service.Reconcile(context.Background(), "default", "1001-A", "M-1")
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.True(t, bills[0].Cost.Equal(money("80.00")))
	assert.Equal(t, "default", warehouse.gotUtility)
	assert.Equal(t, "1001-A", warehouse.gotAccount)
}

func TestReconcileServicePropagatesWarehouseError(t *testing.T) {
	warehouse := &fakeWarehouse{err: errors.New("connection refused")}
	profiles, err := LoadProfiles("")
	require.NoError(t, err)
	service, err := NewReconcileService(warehouse, profiles, nil)
	require.NoError(t, err)

	_, err = service.Reconcile(context.Background(), "default", "1001-A", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestNewReconcileServiceRejectsNilDeps(t *testing.T) {
	profiles, err := LoadProfiles("")
	require.NoError(t, err)

	_, err = NewReconcileService(nil, profiles, nil)
	require.Error(t, err)
	_, err = NewReconcileService(&fakeWarehouse{}, nil, nil)
	require.Error(t, err)
}
