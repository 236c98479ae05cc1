package calc

import (
	"fmt"
	"slices"

	"github.com/dukex/voltgraph/pkg/models"
)

const (
	busLabel    = "main bus"
	backupLabel = "backup source"
)

// SynthesizeTrunk builds the trunk diagram for a set of distribution boxes.
//
// Boxes are grouped by floor, floors ascend, and boxes keep their input order
// within a floor. Every box is fed from the first box of the nearest lower
// populated floor, or from the main bus on the lowest floor. Boxes carrying the
// dual power switch module get a dual-power feed plus a backup-power
// connection from a shared backup source.
func SynthesizeTrunk(boxes []models.DistributionBoxRecord) models.TrunkDiagram {
	diagram := models.TrunkDiagram{
		Components:  []models.DiagramComponent{},
		Connections: []models.DiagramConnection{},
		Floors:      []int{},
	}

	bus := addComponent(&diagram, models.DiagramComponent{Type: models.ComponentBus, Label: busLabel, Row: -1})

	byFloor := make(map[int][]int)

	for i, b := range boxes {
		if _, seen := byFloor[b.Floor]; !seen {
			diagram.Floors = append(diagram.Floors, b.Floor)
		}

		byFloor[b.Floor] = append(byFloor[b.Floor], i)
	}

	slices.Sort(diagram.Floors)

	backup := -1
	if slices.ContainsFunc(boxes, func(b models.DistributionBoxRecord) bool {
		return slices.Contains(b.Modules, models.ModuleDualPowerSwitch)
	}) {
		backup = addComponent(&diagram, models.DiagramComponent{Type: models.ComponentBackupSource, Label: backupLabel, Row: -1, Column: 1})
	}

	feeder := bus

	for row, floor := range diagram.Floors {
		firstOnFloor := -1

		for column, idx := range byFloor[floor] {
			box := boxes[idx]
			dual := slices.Contains(box.Modules, models.ModuleDualPowerSwitch)
			fire := slices.Contains(box.Modules, models.ModuleFireLoad)

			id := addComponent(&diagram, models.DiagramComponent{
				Type:     models.ComponentBox,
				Label:    boxLabel(box),
				Floor:    floor,
				Row:      row,
				Column:   column,
				FireLoad: fire,
			})

			if firstOnFloor < 0 {
				firstOnFloor = id
			}

			kind := models.ConnectionSinglePower
			if dual {
				kind = models.ConnectionDualPower
				diagram.DualPower++
			}

			diagram.Connections = append(diagram.Connections, models.DiagramConnection{From: feeder, To: id, Type: kind})

			if dual {
				diagram.Connections = append(diagram.Connections, models.DiagramConnection{From: backup, To: id, Type: models.ConnectionBackupPower})
			}

			if fire {
				diagram.FireLoadBoxes++
			}

			diagram.TotalCurrent += box.TotalCurrent
		}

		feeder = firstOnFloor
	}

	return diagram
}

func addComponent(d *models.TrunkDiagram, c models.DiagramComponent) int {
	c.ID = len(d.Components)
	d.Components = append(d.Components, c)

	return c.ID
}

func boxLabel(b models.DistributionBoxRecord) string {
	return fmt.Sprintf("%s F%d %.2fkW %.2fA", b.Name, b.Floor, b.TotalPower, b.TotalCurrent)
}
