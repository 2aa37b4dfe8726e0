package memory

import (
	"github.com/shopspring/decimal"

	"github.com/tarushsinha/ATHOS/internal/domain"
)

// Scales of the NUMERIC columns in db/postgres/migrations/0001_init.up.sql.
const (
	weightScale     = 2
	rpeScale        = 2
	distanceScale   = 3
	inclineScale    = 2
	speedScale      = 3
	resistanceScale = 2
	rpmScale        = 2
)

// numeric rounds half away from zero at the given scale, as Postgres stores a float
// bound to a NUMERIC(p, scale) column.
func numeric(v *float64, scale int32) *float64 {
	if v == nil {
		return nil
	}
	rounded, _ := decimal.NewFromFloat(*v).Round(scale).Float64()
	return &rounded
}

func roundStrengthSet(set domain.StrengthSet) domain.StrengthSet {
	set.Weight = numeric(set.Weight, weightScale)
	set.RPE = numeric(set.RPE, rpeScale)
	return set
}

func roundCardioSession(session domain.CardioSession) domain.CardioSession {
	session.DistanceMiles = numeric(session.DistanceMiles, distanceScale)
	session.Incline = numeric(session.Incline, inclineScale)
	session.SpeedMPH = numeric(session.SpeedMPH, speedScale)
	session.Resistance = numeric(session.Resistance, resistanceScale)
	session.RPMs = numeric(session.RPMs, rpmScale)
	return session
}
