package netbird

// DefaultNetwork is the catch-all network of an exit-node route.
const DefaultNetwork = "0.0.0.0/0"

// Peer is a device registered with the NetBird management service.
type Peer struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Hostname  string `json:"hostname,omitempty"`
	IP        string `json:"ip,omitempty"`
	DNSLabel  string `json:"dns_label,omitempty"`
	Connected bool   `json:"connected"`
	OS        string `json:"os,omitempty"`
	Version   string `json:"version,omitempty"`
}

// Label returns the user-facing name of the peer. The management API
// populates either hostname or name depending on its version.
func (p Peer) Label() string {
	if p.Hostname != "" {
		return p.Hostname
	}
	return p.Name
}

// Matches reports whether the peer is identified by the given hostname.
// Matching is exact and case-sensitive.
func (p Peer) Matches(hostname string) bool {
	return p.Hostname == hostname || p.Name == hostname
}

// GroupPeer is a group member. Older API versions return bare peer id
// strings, newer ones return embedded objects; both decode into this type.
type GroupPeer struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

func (p *GroupPeer) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &p.ID)
	}
	type plain GroupPeer
	return json.Unmarshal(data, (*plain)(p))
}

// Group is a named set of peers used to scope route distribution.
type Group struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Peers []GroupPeer `json:"peers,omitempty"`
}

// PeerIDs returns the ids of the group members.
func (g Group) PeerIDs() []string {
	ids := make([]string, 0, len(g.Peers))
	for _, p := range g.Peers {
		ids = append(ids, p.ID)
	}
	return ids
}

// HasPeer reports whether the peer id is a member of the group.
func (g Group) HasPeer(peerID string) bool {
	for _, p := range g.Peers {
		if p.ID == peerID {
			return true
		}
	}
	return false
}

// Route is a network route distributed to the groups it lists. A route
// whose Peer field is set routes traffic through that peer; combined
// with the 0.0.0.0/0 network that makes the peer an exit node.
type Route struct {
	ID          string   `json:"id"`
	NetworkID   string   `json:"network_id,omitempty"`
	Network     string   `json:"network"`
	NetworkType string   `json:"network_type,omitempty"`
	Description string   `json:"description,omitempty"`
	Peer        string   `json:"peer,omitempty"`
	Peers       []string `json:"peers,omitempty"`
	Groups      []string `json:"groups"`
	Enabled     bool     `json:"enabled"`
	Metric      int      `json:"metric,omitempty"`
	Masquerade  bool     `json:"masquerade,omitempty"`
	Domains     []string `json:"domains,omitempty"`
}

// IsExitNode reports whether the route sends traffic through a peer.
func (r Route) IsExitNode() bool {
	return r.Peer != ""
}

// IsDefault reports whether the route catches all otherwise-unmatched traffic.
func (r Route) IsDefault() bool {
	return r.Network == DefaultNetwork
}

// HasGroup reports whether the group id is in the route's distribution list.
func (r Route) HasGroup(groupID string) bool {
	for _, g := range r.Groups {
		if g == groupID {
			return true
		}
	}
	return false
}

// GroupRequest is the body of group create and update calls. The API
// accepts members as bare peer ids.
type GroupRequest struct {
	Name  string   `json:"name"`
	Peers []string `json:"peers"`
}

// RouteRequest is the body of a route update. The API requires a full
// route body on PUT, so it is rebuilt from the last fetched route.
type RouteRequest struct {
	Network     string   `json:"network"`
	Description string   `json:"description"`
	Enabled     bool     `json:"enabled"`
	Peer        string   `json:"peer"`
	Groups      []string `json:"groups"`
	Metric      int      `json:"metric"`
	Masquerade  bool     `json:"masquerade"`
	NetworkID   string   `json:"network_id,omitempty"`
	Domains     []string `json:"domains,omitempty"`
}

// RouteUpdate rebuilds a full update body from a fetched route, replacing
// only its distribution groups. The route stays enabled for other peers.
func RouteUpdate(r Route, groups []string) RouteRequest {
	metric := r.Metric
	if metric == 0 {
		metric = 9999
	}
	if groups == nil {
		groups = []string{}
	}
	return RouteRequest{
		Network:     r.Network,
		Description: r.Description,
		Enabled:     r.Enabled,
		Peer:        r.Peer,
		Groups:      groups,
		Metric:      metric,
		Masquerade:  r.Masquerade,
		NetworkID:   r.NetworkID,
		Domains:     r.Domains,
	}
}
