package veloinfo

import (
	"github.com/LdDl/ch"
	"github.com/pkg/errors"
)

// CHEdge is a directed bicycle-weighted edge of exported graph
type CHEdge struct {
	Source int64
	Target int64
	Weight float64
	Point  EdgePoint
}

// BuildCHGraph returns contraction hierarchies graph whose edge weights are profile costs.
// Impassable traversals are not exported
func BuildCHGraph(records []EdgeRecord, profile Profile) (*ch.Graph, []CHEdge, map[int64]GeoPoint, error) {
	graph := ch.Graph{}
	edges := make([]CHEdge, 0, len(records)*2)
	verticesGeoms := make(map[int64]GeoPoint)
	for i := range records {
		edge := NewEdge(records[i])
		forward := EdgePoint{Edge: edge, Direction: DIRECTION_TARGET}
		for _, ep := range []EdgePoint{forward, forward.Reverse()} {
			cost := profile.Cost(ep)
			if cost >= impassableFactor*edgeLength(ep) {
				continue
			}
			source := int64(ep.FromNodeID())
			target := int64(ep.ToNodeID())
			if err := graph.CreateVertex(source); err != nil {
				return nil, nil, nil, errors.Wrap(err, "Can not create source vertex")
			}
			if err := graph.CreateVertex(target); err != nil {
				return nil, nil, nil, errors.Wrap(err, "Can not create target vertex")
			}
			if err := graph.AddEdge(source, target, cost); err != nil {
				return nil, nil, nil, errors.Wrap(err, "Can not wrap Source and Target vertices as Edge")
			}
			if _, ok := verticesGeoms[source]; !ok {
				verticesGeoms[source] = ep.From()
			}
			if _, ok := verticesGeoms[target]; !ok {
				verticesGeoms[target] = ep.To()
			}
			edges = append(edges, CHEdge{Source: source, Target: target, Weight: cost, Point: ep})
		}
	}
	return &graph, edges, verticesGeoms, nil
}
