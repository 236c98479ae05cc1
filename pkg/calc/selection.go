package calc

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/dukex/voltgraph/pkg/models"
)

// BreakerRatings are the standard trip-current ratings of outgoing breakers, ascending.
var BreakerRatings = []float64{1, 2, 4, 6, 10, 16, 20, 25, 32, 40, 50, 63, 80, 100, 125}

// IncomingRatings are the standard ratings of incoming protection devices, ascending.
var IncomingRatings = []float64{6, 10, 16, 20, 25, 32, 40, 50, 63, 80, 100, 125, 160, 200, 250, 315, 400, 500, 630}

// cableBand maps a copper cross section (mm2) to its ampacity (A).
type cableBand struct {
	section  float64
	ampacity float64
}

var cableBands = []cableBand{
	{1.5, 16},
	{2.5, 25},
	{4, 32},
	{6, 40},
	{10, 63},
	{16, 80},
	{25, 100},
	{35, 125},
	{50, 160},
	{70, 200},
	{95, 250},
	{120, 280},
	{150, 315},
	{185, 355},
	{240, 420},
}

var protectiveSections = map[float64]float64{
	25:  16,
	35:  16,
	50:  25,
	70:  35,
	95:  50,
	120: 70,
	150: 70,
	185: 95,
	240: 120,
}

// SelectRating returns the smallest entry of the ascending table that is >= current.
// When none fits it returns the table maximum and ok == false.
func SelectRating(table []float64, current float64) (rating float64, ok bool) {
	i, _ := slices.BinarySearch(table, current)
	if i < len(table) {
		return table[i], true
	}

	return table[len(table)-1], false
}

// SelectBreaker picks the breaker rating for the protection current I1.1.
func SelectBreaker(current11 float64) (float64, bool) {
	return SelectRating(BreakerRatings, current11)
}

// SelectIncoming picks the incoming device rating for an aggregated current.
func SelectIncoming(current float64) (float64, bool) {
	return SelectRating(IncomingRatings, current*IncomingMargin)
}

// ProtectiveSection returns the PE conductor cross section for a phase conductor.
func ProtectiveSection(phase float64) float64 {
	if pe, ok := protectiveSections[phase]; ok {
		return pe
	}

	return phase
}

// SelectCable chooses the smallest conductor whose ampacity covers current.
func SelectCable(current float64, phase models.Phase) models.CableSelection {
	band := cableBands[len(cableBands)-1]
	outOfRange := true

	for _, b := range cableBands {
		if current <= b.ampacity {
			band = b
			outOfRange = false

			break
		}
	}

	pe := ProtectiveSection(band.section)

	return models.CableSelection{
		PhaseSection: band.section,
		PESection:    pe,
		Spec:         CableSpec(band.section, pe, phase),
		OutOfRange:   outOfRange,
	}
}

// CableSpec renders a conductor description such as "2x2.5+PE2.5".
func CableSpec(section, pe float64, phase models.Phase) string {
	conductors := 2
	if phase == models.ThreePhase {
		conductors = 4
	}

	return fmt.Sprintf("%dx%s+PE%s", conductors, formatSection(section), formatSection(pe))
}

func formatSection(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
