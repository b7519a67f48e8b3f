package nem12

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// NMILength is the fixed length of a National Metering Identifier.
const NMILength = 10

// EnergyUnit is the unit of measure of a meter read.
type EnergyUnit string

// KWH is the only recognized energy unit.
const KWH EnergyUnit = "KWH"

// ParseEnergyUnit maps a raw field to a recognized EnergyUnit.
func ParseEnergyUnit(s string) (EnergyUnit, error) {
	switch EnergyUnit(s) {
	case KWH:
		return KWH, nil
	}
	return "", fmt.Errorf("%w: unrecognized energy unit %q", ErrFieldValidation, s)
}

// Quality flags whether a volume was measured or inferred.
type Quality string

const (
	Active   Quality = "A"
	Estimate Quality = "E"
)

// ParseQuality maps a raw field to Active or Estimate.
func ParseQuality(s string) (Quality, error) {
	switch Quality(s) {
	case Active, Estimate:
		return Quality(s), nil
	}
	return "", fmt.Errorf("%w: unrecognized quality %q", ErrFieldValidation, s)
}

// String returns the long name of the quality flag.
func (q Quality) String() string {
	switch q {
	case Active:
		return "Active"
	case Estimate:
		return "Estimate"
	}
	return string(q)
}

// MeterVolume is one volume observation. It is immutable once attached.
type MeterVolume struct {
	Volume  decimal.Decimal
	Quality Quality
}

// DatedVolume pairs a volume with the date it was recorded for.
type DatedVolume struct {
	Date time.Time
	MeterVolume
}

// MeterRead holds the volumes recorded against a single NMI.
//
// Volumes keep the order in which they were appended. Repeated dates are
// kept as separate entries.
type MeterRead struct {
	nmi        string
	energyUnit EnergyUnit
	volumes    []DatedVolume
}

// NewMeterRead returns an empty MeterRead. The NMI must be exactly
// NMILength characters and the unit must be recognized.
func NewMeterRead(nmi string, unit EnergyUnit) (*MeterRead, error) {
	if utf8.RuneCountInString(nmi) != NMILength {
		return nil, fmt.Errorf("%w: NMI %q is not %d characters", ErrFieldValidation, nmi, NMILength)
	}
	if _, err := ParseEnergyUnit(string(unit)); err != nil {
		return nil, err
	}
	return &MeterRead{nmi: nmi, energyUnit: unit}, nil
}

// NMI returns the National Metering Identifier.
func (m *MeterRead) NMI() string { return m.nmi }

// EnergyUnit returns the unit the volumes are measured in.
func (m *MeterRead) EnergyUnit() EnergyUnit { return m.energyUnit }

// AppendVolume records v under date.
func (m *MeterRead) AppendVolume(date time.Time, v MeterVolume) {
	m.volumes = append(m.volumes, DatedVolume{Date: date, MeterVolume: v})
}

// Volumes returns a copy of the volumes in insertion order.
func (m *MeterRead) Volumes() []DatedVolume {
	out := make([]DatedVolume, len(m.volumes))
	copy(out, m.volumes)
	return out
}

// Volume returns the first volume recorded for date.
func (m *MeterRead) Volume(date time.Time) (MeterVolume, bool) {
	for _, v := range m.volumes {
		if v.Date.Equal(date) {
			return v.MeterVolume, true
		}
	}
	return MeterVolume{}, false
}

// Len returns the number of volumes.
func (m *MeterRead) Len() int { return len(m.volumes) }

// TotalVolume sums every volume regardless of quality.
func (m *MeterRead) TotalVolume() decimal.Decimal {
	total := decimal.Zero
	for _, v := range m.volumes {
		total = total.Add(v.Volume)
	}
	return total
}

// String implements fmt.Stringer.
func (m *MeterRead) String() string {
	return fmt.Sprintf("MeterRead{nmi=%s, unit=%s, volumes=%d}", m.nmi, m.energyUnit, len(m.volumes))
}
