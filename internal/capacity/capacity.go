// Package capacity computes mass and volume envelopes for storage units and
// spacecraft. Everything here is pure arithmetic on decimals.
package capacity

import (
	"github.com/shopspring/decimal"

	"cargo-inventory-backend/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Envelope is the total versus used mass and volume of one location.
type Envelope struct {
	TotalMass     decimal.Decimal
	TotalVolume   decimal.Decimal
	CurrentMass   decimal.Decimal
	CurrentVolume decimal.Decimal
}

// Load is an amount of mass and volume to be placed somewhere.
type Load struct {
	Mass   decimal.Decimal
	Volume decimal.Decimal
}

// Line is a quantity of a cargo type with its per-unit figures.
type Line struct {
	Quantity      int
	MassPerUnit   decimal.Decimal
	VolumePerUnit decimal.Decimal
}

// LineFor builds a Line from a cargo and quantity.
func LineFor(c model.Cargo, quantity int) Line {
	return Line{Quantity: quantity, MassPerUnit: c.MassPerUnit, VolumePerUnit: c.VolumePerUnit}
}

// Load returns quantity × per-unit mass and volume.
func (l Line) Load() Load {
	q := decimal.NewFromInt(int64(l.Quantity))
	return Load{Mass: q.Mul(l.MassPerUnit), Volume: q.Mul(l.VolumePerUnit)}
}

// Sum adds up the loads of every line.
func Sum(lines ...Line) Load {
	total := Load{Mass: decimal.Zero, Volume: decimal.Zero}
	for _, l := range lines {
		total = total.Add(l.Load())
	}
	return total
}

// Add returns the element-wise sum.
func (l Load) Add(o Load) Load {
	return Load{Mass: l.Mass.Add(o.Mass), Volume: l.Volume.Add(o.Volume)}
}

// AvailableMass is TotalMass - CurrentMass.
func (e Envelope) AvailableMass() decimal.Decimal {
	return e.TotalMass.Sub(e.CurrentMass)
}

// AvailableVolume is TotalVolume - CurrentVolume.
func (e Envelope) AvailableVolume() decimal.Decimal {
	return e.TotalVolume.Sub(e.CurrentVolume)
}

func (e Envelope) MassUsage() float64 {
	return UsagePercentage(e.CurrentMass, e.TotalMass)
}

func (e Envelope) VolumeUsage() float64 {
	return UsagePercentage(e.CurrentVolume, e.TotalVolume)
}

// Fits reports whether l can be added without driving either available
// figure below zero.
func (e Envelope) Fits(l Load) bool {
	return l.Mass.LessThanOrEqual(e.AvailableMass()) && l.Volume.LessThanOrEqual(e.AvailableVolume())
}

// With returns the envelope after adding l to the current usage.
func (e Envelope) With(l Load) Envelope {
	e.CurrentMass = e.CurrentMass.Add(l.Mass)
	e.CurrentVolume = e.CurrentVolume.Add(l.Volume)
	return e
}

// UsagePercentage is current/total × 100, with the ratio rounded to four
// places. A non-positive total yields 0.
func UsagePercentage(current, total decimal.Decimal) float64 {
	if total.Sign() <= 0 {
		return 0
	}
	return current.Div(total).Round(4).Mul(hundred).InexactFloat64()
}

// ForStorageUnit uses the unit's materialized running totals.
func ForStorageUnit(u model.StorageUnit) Envelope {
	return Envelope{
		TotalMass:     u.TotalMassCapacity,
		TotalVolume:   u.TotalVolumeCapacity,
		CurrentMass:   u.CurrentMass,
		CurrentVolume: u.CurrentVolume,
	}
}

// ForSpacecraft sums the active manifest lines aboard the spacecraft.
func ForSpacecraft(s model.Spacecraft, active []Line) Envelope {
	used := Sum(active...)
	return Envelope{
		TotalMass:     s.MassCapacity,
		TotalVolume:   s.VolumeCapacity,
		CurrentMass:   used.Mass,
		CurrentVolume: used.Volume,
	}
}
