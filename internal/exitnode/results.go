package exitnode

import "nbexit/internal/netbird"

// Assignment is the final observed state after SetExitNode.
type Assignment struct {
	Peer     netbird.Peer  `json:"peer"`
	ExitNode netbird.Peer  `json:"exit_node"`
	Group    netbird.Group `json:"group"`
	Route    netbird.Route `json:"route"`

	// MovedFrom lists exit nodes the peer was detached from during the
	// switch, by label.
	MovedFrom []string `json:"moved_from,omitempty"`

	// AlreadyActive is set when the target route already carried the
	// per-peer group and no route write was needed.
	AlreadyActive bool `json:"already_active"`
}

// Removal summarizes RemoveExitNode. Zero detached routes means the peer
// was not an exit-node target; that is a valid outcome, not a failure.
type Removal struct {
	Peer      netbird.Peer `json:"peer"`
	GroupName string       `json:"group_name"`

	// Detached lists the exit nodes the per-peer group was removed
	// from, by label.
	Detached []string `json:"detached,omitempty"`
}

// RouteNetwork is one network routed through an exit node.
type RouteNetwork struct {
	Network string `json:"network"`
	Enabled bool   `json:"enabled"`
}

// ExitNodeSummary aggregates all routes pointing at one exit-node peer.
type ExitNodeSummary struct {
	PeerID        string         `json:"id"`
	Hostname      string         `json:"hostname"`
	TotalRoutes   int            `json:"total_routes"`
	EnabledRoutes int            `json:"enabled_routes"`
	Networks      []RouteNetwork `json:"networks"`
}

// Active reports whether the exit node has at least one enabled route.
func (s ExitNodeSummary) Active() bool {
	return s.EnabledRoutes > 0
}

// ServingExitNode is an exit node whose route carries the peer's group.
type ServingExitNode struct {
	PeerID   string `json:"id"`
	Hostname string `json:"hostname"`
	Enabled  bool   `json:"enabled"`
}

// GroupSummary is one entry of the group catalog in Info.
type GroupSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	PeerCount int    `json:"peer_count"`
}

// Info describes a peer's exit-node state plus the account catalogs.
type Info struct {
	Peer        netbird.Peer      `json:"peer"`
	GroupName   string            `json:"group_name"`
	GroupExists bool              `json:"group_exists"`
	Serving     []ServingExitNode `json:"serving,omitempty"`
	Groups      []GroupSummary    `json:"groups"`
	ExitNodes   []ExitNodeSummary `json:"exit_nodes"`
}
