package currentflow

import (
	"github.com/pkg/errors"
)

// BranchFlows applies the DC branch equation, flow = (theta_s - theta_d)/x,
// to every branch in id order. Positive flow runs from Source to Destination.
func BranchFlows(branches []Branch, theta []float64) ([]float64, error) {
	flows := make([]float64, len(branches))
	for _, b := range branches {
		if b.ID < 0 || b.ID >= len(flows) {
			return nil, errors.Errorf("branch id %d outside 0..%d", b.ID, len(flows)-1)
		}
		if b.Source >= len(theta) || b.Destination >= len(theta) || b.Source < 0 || b.Destination < 0 {
			return nil, errors.Errorf("branch %d references node outside 0..%d", b.ID, len(theta)-1)
		}
		flows[b.ID] = b.Susceptance() * (theta[b.Source] - theta[b.Destination])
	}
	return flows, nil
}
