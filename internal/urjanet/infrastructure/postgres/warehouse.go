// Package postgres adapts the normalized statement warehouse into in-memory
// statement trees for the reconciliation engine.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	urjanet "meterdata-cloud/internal/urjanet/domain"
)

// WarehouseRepository loads Account/Meter/Charge/Usage trees.
type WarehouseRepository struct {
	db *sql.DB
}

// NewWarehouseRepository constructs a repository.
func NewWarehouseRepository(db *sql.DB) *WarehouseRepository {
	return &WarehouseRepository{db: db}
}

// LoadStatements returns every statement for an account, with meter, charge
// and usage children attached. Statement order is not significant; the engine
// imposes its own ordering.
func (r *WarehouseRepository) LoadStatements(ctx context.Context, utility, accountNumber string) ([]urjanet.Account, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("warehouse repo: nil db")
	}

	accounts, err := r.loadAccounts(ctx, utility, accountNumber)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		meters, err := r.loadMeters(ctx, accounts[i].PK)
		if err != nil {
			return nil, err
		}
		for j := range meters {
			if meters[j].Charges, err = r.loadCharges(ctx, accounts[i].PK, meters[j].PK); err != nil {
				return nil, err
			}
			if meters[j].Usages, err = r.loadUsages(ctx, accounts[i].PK, meters[j].PK); err != nil {
				return nil, err
			}
		}
		accounts[i].Meters = meters
		if accounts[i].FloatingCharges, err = r.loadFloatingCharges(ctx, accounts[i].PK); err != nil {
			return nil, err
		}
	}
	return accounts, nil
}

func (r *WarehouseRepository) loadAccounts(ctx context.Context, utility, accountNumber string) ([]urjanet.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT
	pk,
	utility_provider,
	account_number,
	raw_account_number,
	source_link,
	statement_type,
	statement_date,
	interval_start,
	interval_end,
	total_bill_amount,
	amount_due,
	new_charges,
	outstanding_balance,
	previous_balance
FROM urja_accounts
WHERE utility_provider = $1 AND account_number = $2
ORDER BY pk ASC`, utility, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("warehouse repo: accounts: %w", err)
	}
	defer rows.Close()

	var accounts []urjanet.Account
	for rows.Next() {
		var account urjanet.Account
		var statementDate, intervalStart, intervalEnd sql.NullTime
		var sourceLink, rawAccount sql.NullString
		var total, due, charges, outstanding, previous sql.NullString
		if err := rows.Scan(
			&account.PK,
			&account.UtilityProvider,
			&account.AccountNumber,
			&rawAccount,
			&sourceLink,
			&account.StatementType,
			&statementDate,
			&intervalStart,
			&intervalEnd,
			&total,
			&due,
			&charges,
			&outstanding,
			&previous,
		); err != nil {
			return nil, fmt.Errorf("warehouse repo: accounts scan: %w", err)
		}
		account.RawAccountNumber = rawAccount.String
		account.SourceLink = sourceLink.String
		if statementDate.Valid {
			account.StatementDate = statementDate.Time.UTC()
		}
		if intervalStart.Valid {
			account.IntervalStart = intervalStart.Time.UTC()
		}
		if intervalEnd.Valid {
			account.IntervalEnd = intervalEnd.Time.UTC()
		}
		account.TotalBillAmount = nullDecimal(total)
		account.AmountDue = nullDecimal(due)
		account.NewCharges = nullDecimal(charges)
		account.OutstandingBalance = nullDecimal(outstanding)
		account.PreviousBalance = nullDecimal(previous)
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("warehouse repo: accounts: %w", err)
	}
	return accounts, nil
}

func (r *WarehouseRepository) loadMeters(ctx context.Context, accountPK int64) ([]urjanet.Meter, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT
	pk,
	service_type,
	pod_id,
	meter_number,
	interval_start,
	interval_end
FROM urja_meters
WHERE account_pk = $1
ORDER BY pk ASC`, accountPK)
	if err != nil {
		return nil, fmt.Errorf("warehouse repo: meters: %w", err)
	}
	defer rows.Close()

	var meters []urjanet.Meter
	for rows.Next() {
		var meter urjanet.Meter
		var podID, meterNumber sql.NullString
		var intervalStart, intervalEnd sql.NullTime
		if err := rows.Scan(
			&meter.PK,
			&meter.ServiceType,
			&podID,
			&meterNumber,
			&intervalStart,
			&intervalEnd,
		); err != nil {
			return nil, fmt.Errorf("warehouse repo: meters scan: %w", err)
		}
		meter.PODid = podID.String
		meter.MeterNumber = meterNumber.String
		if intervalStart.Valid {
			meter.IntervalStart = intervalStart.Time.UTC()
		}
		if intervalEnd.Valid {
			meter.IntervalEnd = intervalEnd.Time.UTC()
		}
		meters = append(meters, meter)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("warehouse repo: meters: %w", err)
	}
	return meters, nil
}

const chargeColumns = `
	pk,
	charge_actual_name,
	charge_amount,
	usage_unit,
	charge_units_used,
	charge_rate_per_unit,
	is_third_party,
	is_adjustment,
	interval_start,
	interval_end`

func (r *WarehouseRepository) loadCharges(ctx context.Context, accountPK, meterPK int64) ([]urjanet.Charge, error) {
	query := `SELECT` + chargeColumns + `
FROM urja_charges
WHERE account_pk = $1 AND meter_pk = $2
ORDER BY pk ASC`
	return r.scanCharges(ctx, query, accountPK, meterPK)
}

func (r *WarehouseRepository) loadFloatingCharges(ctx context.Context, accountPK int64) ([]urjanet.Charge, error) {
	query := `SELECT` + chargeColumns + `
FROM urja_charges
WHERE account_pk = $1 AND meter_pk IS NULL
ORDER BY pk ASC`
	return r.scanCharges(ctx, query, accountPK)
}

func (r *WarehouseRepository) scanCharges(ctx context.Context, query string, args ...any) ([]urjanet.Charge, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("warehouse repo: charges: %w", err)
	}
	defer rows.Close()

	var charges []urjanet.Charge
	for rows.Next() {
		var charge urjanet.Charge
		var amount sql.NullString
		var unit sql.NullString
		var unitsUsed, rate sql.NullFloat64
		var intervalStart, intervalEnd sql.NullTime
		if err := rows.Scan(
			&charge.PK,
			&charge.ChargeActualName,
			&amount,
			&unit,
			&unitsUsed,
			&rate,
			&charge.ThirdParty,
			&charge.IsAdjustmentCharge,
			&intervalStart,
			&intervalEnd,
		); err != nil {
			return nil, fmt.Errorf("warehouse repo: charges scan: %w", err)
		}
		charge.ChargeAmount = nullDecimal(amount)
		charge.UsageUnit = unit.String
		if unitsUsed.Valid {
			v := unitsUsed.Float64
			charge.ChargeUnitsUsed = &v
		}
		if rate.Valid {
			v := rate.Float64
			charge.ChargeRatePerUnit = &v
		}
		if intervalStart.Valid {
			charge.IntervalStart = intervalStart.Time.UTC()
		}
		if intervalEnd.Valid {
			charge.IntervalEnd = intervalEnd.Time.UTC()
		}
		charges = append(charges, charge)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("warehouse repo: charges: %w", err)
	}
	return charges, nil
}

func (r *WarehouseRepository) loadUsages(ctx context.Context, accountPK, meterPK int64) ([]urjanet.Usage, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT
	pk,
	usage_actual_name,
	usage_amount,
	rate_component,
	energy_unit,
	interval_start,
	interval_end
FROM urja_usages
WHERE account_pk = $1 AND meter_pk = $2
ORDER BY pk ASC`, accountPK, meterPK)
	if err != nil {
		return nil, fmt.Errorf("warehouse repo: usages: %w", err)
	}
	defer rows.Close()

	var usages []urjanet.Usage
	for rows.Next() {
		var usage urjanet.Usage
		var rateComponent, energyUnit sql.NullString
		var intervalStart, intervalEnd sql.NullTime
		if err := rows.Scan(
			&usage.PK,
			&usage.UsageActualName,
			&usage.UsageAmount,
			&rateComponent,
			&energyUnit,
			&intervalStart,
			&intervalEnd,
		); err != nil {
			return nil, fmt.Errorf("warehouse repo: usages scan: %w", err)
		}
		usage.RateComponent = rateComponent.String
		usage.EnergyUnit = energyUnit.String
		if intervalStart.Valid {
			usage.IntervalStart = intervalStart.Time.UTC()
		}
		if intervalEnd.Valid {
			usage.IntervalEnd = intervalEnd.Time.UTC()
		}
		usages = append(usages, usage)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("warehouse repo: usages: %w", err)
	}
	return usages, nil
}

func nullDecimal(value sql.NullString) decimal.Decimal {
	if !value.Valid || value.String == "" {
		return decimal.Zero
	}
	parsed, err := decimal.NewFromString(value.String)
	if err != nil {
		return decimal.Zero
	}
	return parsed
}
