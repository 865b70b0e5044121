package synthetic

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/de-tools/data-pump/pkg/models/domain"
	"github.com/de-tools/data-pump/pkg/pump"
)

const (
	FerryCarriesName = "ferry_carries"
	DailyTotalsName  = "ferry_daily_totals"

	fieldTravelDate = "travel_date"
	fieldTravelTime = "travel_time"
	fieldPassengers = "number_of_passengers"
	fieldVehicles   = "number_of_vehicles"
	fieldLength     = "length_of_vehicles"
	fieldSailings   = "sailings"

	firstSailingHour = 6
	serviceHours     = 16
)

// DefaultStart is the first travel date when the "start" option is absent.
var DefaultStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

var ferrySchema = pump.NewSchema().
	DeclareField(fieldTravelDate, domain.TypeDate).
	DeclareField(fieldTravelTime, domain.TypeTime).
	DeclareFields([]string{fieldPassengers, fieldVehicles, fieldLength}, domain.TypeInteger).
	MustBuild()

// FerryCarries generates one row per sailing. Output is a pure function of its
// options, so repeated runs with the same options produce the same rows.
//
// Options: seed (integer, default 1), days (integer, default 7),
// start (date, default DefaultStart), sailings per day (integer, default 4).
type FerryCarries struct {
	pump.Base
}

func NewFerryCarries() *FerryCarries {
	return &FerryCarries{Base: pump.NewBase(ferrySchema)}
}

// HonorsFilter reports true for travel_date: non-matching days are never generated.
func (f *FerryCarries) HonorsFilter(field string, _ domain.Op) bool {
	return field == fieldTravelDate
}

func (f *FerryCarries) Generate(ctx context.Context, opts pump.Options) ([]domain.Row, error) {
	var rows []domain.Row
	err := f.sailings(ctx, opts, func(s sailing) {
		rows = append(rows, domain.Row{s.date, s.departure, s.passengers, s.vehicles, s.length})
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

type sailing struct {
	date       time.Time
	departure  time.Time
	passengers int64
	vehicles   int64
	length     int64
}

type generatorConfig struct {
	seed     int
	days     int
	start    time.Time
	perDay   int
	dateCond []domain.Condition
}

func readConfig(opts pump.Options) (generatorConfig, error) {
	var (
		cfg generatorConfig
		err error
	)
	if cfg.seed, err = opts.Int("seed", 1); err != nil {
		return cfg, err
	}
	if cfg.days, err = opts.Int("days", 7); err != nil {
		return cfg, err
	}
	if cfg.perDay, err = opts.Int("sailings", 4); err != nil {
		return cfg, err
	}
	if cfg.start, err = opts.Time("start", DefaultStart); err != nil {
		return cfg, err
	}
	if cfg.days < 0 || cfg.perDay < 1 || cfg.perDay > 24 {
		return cfg, fmt.Errorf("invalid generator options: days=%d sailings=%d", cfg.days, cfg.perDay)
	}
	for _, c := range opts.Conditions() {
		if c.Field == fieldTravelDate {
			cfg.dateCond = append(cfg.dateCond, c)
		}
	}
	return cfg, nil
}

// sailings walks every generated sailing in date then departure order.
// The random stream advances for skipped days too, so filtering never
// changes the values of the days that remain.
func (f *FerryCarries) sailings(ctx context.Context, opts pump.Options, emit func(sailing)) error {
	cfg, err := readConfig(opts)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewPCG(uint64(cfg.seed), 0x5eed))
	start := time.Date(cfg.start.Year(), cfg.start.Month(), cfg.start.Day(), 0, 0, 0, 0, time.UTC)
	gap := serviceHours * time.Hour / time.Duration(cfg.perDay)

	for d := 0; d < cfg.days; d++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		date := start.AddDate(0, 0, d)
		keep := matchAll(date, cfg.dateCond)
		for i := 0; i < cfg.perDay; i++ {
			vehicles := int64(rng.IntN(60))
			s := sailing{
				date:       date,
				departure:  time.Date(0, 1, 1, firstSailingHour, 0, 0, 0, time.UTC).Add(time.Duration(i) * gap),
				passengers: int64(20 + rng.IntN(280)),
				vehicles:   vehicles,
				length:     vehicles * int64(4+rng.IntN(3)),
			}
			if keep {
				emit(s)
			}
		}
	}
	return nil
}

func matchAll(v any, conds []domain.Condition) bool {
	for _, c := range conds {
		if !c.Matches(v) {
			return false
		}
	}
	return true
}

// FerryCarriesDefinition is the registry entry for FerryCarries.
func FerryCarriesDefinition() pump.Definition {
	return pump.Definition{
		Description: "Synthetic ferry sailings: one row per departure",
		Schema:      ferrySchema,
		Factory: func(context.Context) (pump.DataPump, error) {
			return NewFerryCarries(), nil
		},
	}
}
