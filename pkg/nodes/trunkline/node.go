package trunkline

import (
	"github.com/dukex/voltgraph/pkg/calc"
	"github.com/dukex/voltgraph/pkg/models"
)

// Evaluate lays out the connected boxes by floor.
func Evaluate(p models.TrunkLineParams, inputs map[string]models.Value) (map[string]models.Value, []string, error) {
	slots := p.BoxSlots
	if slots <= 0 {
		slots = DefaultBoxSlots
	}

	boxes := make([]models.DistributionBoxRecord, 0, slots)

	for i := 1; i <= slots; i++ {
		if v, ok := inputs[BoxPort(i)]; ok && v.Box != nil {
			boxes = append(boxes, *v.Box)
		}
	}

	diagram := calc.SynthesizeTrunk(boxes)

	return map[string]models.Value{
		OutputPortCurrent: models.Scalar(models.DataCurrent, diagram.TotalCurrent),
		OutputPortDiagram: models.TrunkValue(diagram),
	}, nil, nil
}
