// Package resolver computes a deterministic evaluation order over the dataflow graph.
package resolver

import (
	"errors"
	"strings"

	"github.com/dukex/voltgraph/pkg/models"
)

// ErrCycle is matched by every CycleError.
var ErrCycle = errors.New("cycle detected")

// Graph is the read view the resolver needs.
type Graph interface {
	// Nodes returns live nodes in creation order.
	Nodes() []models.NodeID
	// Upstream returns the producers feeding id, in input-port order.
	Upstream(id models.NodeID) []models.NodeID
}

// CycleError reports a dependency cycle. Path follows the direction of data
// flow and starts and ends with the same node.
type CycleError struct {
	Path []models.NodeID
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Path))
	for i, id := range e.Path {
		parts[i] = id.String()
	}

	return ErrCycle.Error() + ": " + strings.Join(parts, " -> ")
}

func (e *CycleError) Unwrap() error {
	return ErrCycle
}

type color uint8

const (
	white color = iota // unvisited
	gray               // in progress
	black              // done
)

type frame struct {
	id        models.NodeID
	producers []models.NodeID
	next      int
}

// TopologicalOrder returns every node after all nodes that feed it.
// Roots are taken in creation order and producers in input-port order,
// so equal graphs always yield the same sequence.
func TopologicalOrder(g Graph) ([]models.NodeID, error) {
	nodes := g.Nodes()
	colors := make(map[models.NodeID]color, len(nodes))
	order := make([]models.NodeID, 0, len(nodes))

	for _, root := range nodes {
		if colors[root] != white {
			continue
		}

		colors[root] = gray
		stack := []*frame{{id: root, producers: g.Upstream(root)}}

		for len(stack) > 0 {
			top := stack[len(stack)-1]

			if top.next == len(top.producers) {
				colors[top.id] = black
				order = append(order, top.id)
				stack = stack[:len(stack)-1]

				continue
			}

			producer := top.producers[top.next]
			top.next++

			switch colors[producer] {
			case white:
				colors[producer] = gray
				stack = append(stack, &frame{id: producer, producers: g.Upstream(producer)})
			case gray:
				return nil, &CycleError{Path: cyclePath(stack, producer)}
			default:
				// already ordered
			}
		}
	}

	return order, nil
}

// cyclePath turns the consumes-from stack into a feeds-into path.
func cyclePath(stack []*frame, start models.NodeID) []models.NodeID {
	i := 0
	for i < len(stack) && stack[i].id != start {
		i++
	}

	path := []models.NodeID{start}
	for j := len(stack) - 1; j > i; j-- {
		path = append(path, stack[j].id)
	}

	return append(path, start)
}

// Ranks groups an order into layers. A node's rank is one more than the
// highest rank among its producers; nodes without producers have rank 0.
// Nodes of one rank have no path between them.
func Ranks(g Graph, order []models.NodeID) [][]models.NodeID {
	rank := make(map[models.NodeID]int, len(order))

	var layers [][]models.NodeID

	for _, id := range order {
		r := 0
		for _, p := range g.Upstream(id) {
			if pr, ok := rank[p]; ok && pr+1 > r {
				r = pr + 1
			}
		}

		rank[id] = r

		for len(layers) <= r {
			layers = append(layers, nil)
		}

		layers[r] = append(layers[r], id)
	}

	return layers
}
