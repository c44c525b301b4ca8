// Package builtin registers the handler descriptors the server and worker
// ship with. The actual graph computations are modelled as opaque child
// executables invoked by name; their internal logic is out of scope here.
// Invoke only demonstrates the registration contract by round-tripping the
// request bytes unchanged.
package builtin

import (
	"context"

	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/handler"
)

func echo(_ context.Context, request []byte) ([]byte, error) {
	return request, nil
}

func init() {
	handler.Register(handler.Descriptor{
		Name:           "dijkstra",
		RequiredFields: []string{"graph", "start_node", "end_node"},
		ResultShape:    "shortest_path",
		Invoke:         echo,
	})
	handler.Register(handler.Descriptor{
		Name:           "kruskal",
		RequiredFields: []string{"graph"},
		ResultShape:    "minimum_spanning_tree",
		Invoke:         echo,
	})
}
