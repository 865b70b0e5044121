package synthetic

import (
	"context"
	"time"

	"github.com/de-tools/data-pump/pkg/models/domain"
	"github.com/de-tools/data-pump/pkg/pump"
)

var dailySchema = pump.NewSchema().
	DeclareField(fieldTravelDate, domain.TypeDate).
	DeclareField(fieldTravelTime, domain.TypeTime).
	DeclareFields([]string{fieldPassengers, fieldVehicles, fieldLength}, domain.TypeInteger).
	DeclareOutputShape(fieldTravelDate, fieldSailings, fieldPassengers, fieldVehicles).
	MustBuild()

// DailyTotals aggregates FerryCarries per travel date. Its rows carry the
// derived sailings column, declared through the output shape.
type DailyTotals struct {
	pump.Base
	source *FerryCarries
}

func NewDailyTotals() *DailyTotals {
	return &DailyTotals{
		Base:   pump.NewBase(dailySchema),
		source: NewFerryCarries(),
	}
}

func (d *DailyTotals) HonorsFilter(field string, op domain.Op) bool {
	return d.source.HonorsFilter(field, op)
}

func (d *DailyTotals) Generate(ctx context.Context, opts pump.Options) ([]domain.Row, error) {
	var rows []domain.Row
	err := d.source.sailings(ctx, opts, func(s sailing) {
		if n := len(rows); n > 0 && rows[n-1][0].(time.Time).Equal(s.date) {
			last := rows[n-1]
			last[1] = last[1].(int64) + 1
			last[2] = last[2].(int64) + s.passengers
			last[3] = last[3].(int64) + s.vehicles
			return
		}
		rows = append(rows, domain.Row{s.date, int64(1), s.passengers, s.vehicles})
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func DailyTotalsDefinition() pump.Definition {
	return pump.Definition{
		Description: "Synthetic ferry sailings aggregated per travel date",
		Schema:      dailySchema,
		Factory: func(context.Context) (pump.DataPump, error) {
			return NewDailyTotals(), nil
		},
	}
}

// Register adds both synthetic pumps to r.
func Register(r pump.Registry) error {
	if err := r.Register(FerryCarriesName, FerryCarriesDefinition()); err != nil {
		return err
	}
	return r.Register(DailyTotalsName, DailyTotalsDefinition())
}
