package core

import (
	"sort"
	"time"

	"github.com/signalsfoundry/adaptive-wifi-sim/model"
)

// MotionModel updates a node's position for a given simulation offset.
type MotionModel interface {
	UpdatePosition(elapsed time.Duration, n *model.Node)
}

// StaticMotionModel leaves the node's position unchanged.
type StaticMotionModel struct{}

// UpdatePosition for static motion does nothing.
func (m *StaticMotionModel) UpdatePosition(elapsed time.Duration, n *model.Node) {
	// no-op
}

// WaypointMotionModel moves a node along a piecewise-linear trajectory
// through timed waypoints. Before the first waypoint the node sits at
// the first position; after the last it sits at the last.
type WaypointMotionModel struct {
	waypoints []model.Waypoint
}

// NewWaypointMotionModel builds a waypoint model. Waypoints are sorted
// by time so scenarios may list them in any order.
func NewWaypointMotionModel(waypoints []model.Waypoint) *WaypointMotionModel {
	wps := make([]model.Waypoint, len(waypoints))
	copy(wps, waypoints)
	sort.SliceStable(wps, func(i, j int) bool { return wps[i].TimeS < wps[j].TimeS })
	return &WaypointMotionModel{waypoints: wps}
}

// UpdatePosition interpolates the trajectory at the given offset and
// rewrites n.Position.
func (m *WaypointMotionModel) UpdatePosition(elapsed time.Duration, n *model.Node) {
	if len(m.waypoints) == 0 {
		return
	}
	n.Position = m.positionAt(elapsed.Seconds())
}

func (m *WaypointMotionModel) positionAt(t float64) model.Position {
	wps := m.waypoints
	if t <= wps[0].TimeS {
		return wps[0].Position
	}
	last := wps[len(wps)-1]
	if t >= last.TimeS {
		return last.Position
	}
	for i := 1; i < len(wps); i++ {
		if t > wps[i].TimeS {
			continue
		}
		prev, next := wps[i-1], wps[i]
		span := next.TimeS - prev.TimeS
		if span <= 0 {
			return next.Position
		}
		frac := (t - prev.TimeS) / span
		p := Vec3FromPosition(prev.Position).Lerp(Vec3FromPosition(next.Position), frac)
		return model.Position{X: p.X, Y: p.Y, Z: p.Z}
	}
	return last.Position
}

// NewMotionModel chooses an appropriate MotionModel for the node:
// waypoint-driven when the node declares waypoints, static otherwise.
func NewMotionModel(n *model.Node) MotionModel {
	if n != nil && len(n.Waypoints) > 0 {
		return NewWaypointMotionModel(n.Waypoints)
	}
	return &StaticMotionModel{}
}

// MobilityService advances every node's motion model and pushes the
// resulting positions into the knowledge base, so the estimator and the
// simulated radio read a single consistent location per node per tick.
type MobilityService struct {
	kb      *KnowledgeBase
	nodes   []*model.Node
	motions map[string]MotionModel
}

// NewMobilityService wires motion models for the given nodes.
func NewMobilityService(kb *KnowledgeBase, nodes []*model.Node) *MobilityService {
	motions := make(map[string]MotionModel, len(nodes))
	for _, n := range nodes {
		motions[n.ID] = NewMotionModel(n)
	}
	return &MobilityService{kb: kb, nodes: nodes, motions: motions}
}

// UpdatePositions moves every node to its position at the given offset.
func (ms *MobilityService) UpdatePositions(elapsed time.Duration) {
	for _, n := range ms.nodes {
		if motion := ms.motions[n.ID]; motion != nil {
			motion.UpdatePosition(elapsed, n)
		}
		ms.kb.SetNodePosition(n.ID, Vec3FromPosition(n.Position))
	}
}
