package storage

import (
	"database/sql"
	"errors"

	"github.com/roman-kulish/propeller-charts/internal/propeller"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

// rollbackWithError ignores sql.ErrTxDone so it can be deferred before Commit.
func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if rErr := rb.Rollback(); rErr != nil && !errors.Is(rErr, sql.ErrTxDone) && *err == nil {
		*err = rErr
	}
}

// characteristicRow is a flattened table row as stored in the characteristics table.
type characteristicRow struct {
	Speed int
	propeller.Row
}

func (r *characteristicRow) values() []any {
	return []any{
		r.Speed,
		r.RPM,
		r.AdvanceRatio,
		r.Efficiency,
		r.CT,
		r.CP,
		r.CQ,
		r.Power,
		r.Torque,
		r.Thrust,
	}
}

func (r *characteristicRow) scanTargets() []any {
	return []any{
		&r.Speed,
		&r.RPM,
		&r.AdvanceRatio,
		&r.Efficiency,
		&r.CT,
		&r.CP,
		&r.CQ,
		&r.Power,
		&r.Torque,
		&r.Thrust,
	}
}

func toCharacteristicRows(ds *propeller.Dataset) []characteristicRow {
	var rows []characteristicRow
	for _, speed := range ds.Speeds() {
		t := ds.Tables[speed]
		for i := 0; i < t.Len(); i++ {
			rows = append(rows, characteristicRow{Speed: speed, Row: t.Row(i)})
		}
	}
	return rows
}
