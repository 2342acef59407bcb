package core

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/signalsfoundry/adaptive-wifi-sim/model"
)

var (
	ErrLinkExists   = errors.New("link already exists")
	ErrLinkNotFound = errors.New("link not found")
	ErrLinkBadInput = errors.New("invalid link")
)

// MonitoredLink is one AP↔station association under observation. The
// transmit power is the link's only mutable state; it is owned by the
// knowledge base and adjusted at most once per tick, and only for
// controlled links.
type MonitoredLink struct {
	ID        string
	Label     string
	APNodeID  string
	STANodeID string
	FlowID    model.FlowID

	// Controlled marks the link whose power the decision policy drives.
	// Static links keep their initial power for the whole run.
	Controlled bool

	// TxPowerDBm is the link's current transmit power.
	TxPowerDBm float64
}

// KnowledgeBase stores the monitored links and the current node
// positions. It has exactly one power writer per tick (the controller's
// actuation step); the mutex makes reads safe for observers such as the
// metrics endpoint running alongside the tick loop.
type KnowledgeBase struct {
	mu sync.RWMutex

	links         map[string]*MonitoredLink
	nodePositions map[string]Vec3
}

// NewKnowledgeBase creates an empty knowledge base.
func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{
		links:         make(map[string]*MonitoredLink),
		nodePositions: make(map[string]Vec3),
	}
}

//
// ---------- Links ----------
//

// AddLink registers a monitored link. The stored copy is owned by the
// knowledge base; later mutations of the argument have no effect.
func (kb *KnowledgeBase) AddLink(link *MonitoredLink) error {
	if link == nil || link.ID == "" || link.APNodeID == "" || link.STANodeID == "" {
		return fmt.Errorf("%w: id and both node IDs are required", ErrLinkBadInput)
	}

	kb.mu.Lock()
	defer kb.mu.Unlock()

	if _, exists := kb.links[link.ID]; exists {
		return fmt.Errorf("%w: %q", ErrLinkExists, link.ID)
	}
	stored := *link
	kb.links[link.ID] = &stored
	return nil
}

// GetLink returns a copy of the link, or nil if unknown.
func (kb *KnowledgeBase) GetLink(id string) *MonitoredLink {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	link, ok := kb.links[id]
	if !ok {
		return nil
	}
	cp := *link
	return &cp
}

// AllLinks returns copies of every monitored link, sorted by ID so
// iteration order is stable across ticks.
func (kb *KnowledgeBase) AllLinks() []*MonitoredLink {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	out := make([]*MonitoredLink, 0, len(kb.links))
	for _, link := range kb.links {
		cp := *link
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SetLinkTxPower replaces the link's stored transmit power. The new
// value becomes visible to the estimator and the simulated radio from
// the next read on.
func (kb *KnowledgeBase) SetLinkTxPower(id string, powerDBm float64) error {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	link, ok := kb.links[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrLinkNotFound, id)
	}
	link.TxPowerDBm = powerDBm
	return nil
}

// LinkTxPower reads the link's current transmit power.
func (kb *KnowledgeBase) LinkTxPower(id string) (float64, error) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	link, ok := kb.links[id]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrLinkNotFound, id)
	}
	return link.TxPowerDBm, nil
}

//
// ---------- Node positions ----------
//

// SetNodePosition stores the node's current position in metres.
func (kb *KnowledgeBase) SetNodePosition(nodeID string, pos Vec3) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	kb.nodePositions[nodeID] = pos
}

// GetNodePosition returns the node's position and whether one is known.
func (kb *KnowledgeBase) GetNodePosition(nodeID string) (Vec3, bool) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	pos, ok := kb.nodePositions[nodeID]
	return pos, ok
}
