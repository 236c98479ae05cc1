package registry

import (
	"log/slog"

	"github.com/dukex/voltgraph/pkg/nodes/calculation"
	"github.com/dukex/voltgraph/pkg/nodes/circuit"
	"github.com/dukex/voltgraph/pkg/nodes/distributionbox"
	"github.com/dukex/voltgraph/pkg/nodes/powersource"
	"github.com/dukex/voltgraph/pkg/nodes/trunkline"
)

// RegisterDefaultTemplates registers all built-in node templates with the registry.
func (r *Registry) RegisterDefaultTemplates() {
	r.RegisterTemplate(powersource.NewPowerSourceTemplate())
	r.RegisterTemplate(circuit.NewCircuitTemplate())
	r.RegisterTemplate(distributionbox.NewDistributionBoxTemplate())
	r.RegisterTemplate(trunkline.NewTrunkLineTemplate())
	r.RegisterTemplate(calculation.NewCalculationTemplate())
}

// NewDefaultRegistry returns a registry with every built-in template.
func NewDefaultRegistry() *Registry {
	r := NewRegistry(slog.New(slog.DiscardHandler))
	r.RegisterDefaultTemplates()

	return r
}
