package exitnode

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"nbexit/internal/netbird"

	"github.com/shirou/gopsutil/host"
	"go.uber.org/zap"
)

// API is the slice of the NetBird management API the engine needs.
// *netbird.Client satisfies it; tests substitute a fake.
type API interface {
	Peers(ctx context.Context) ([]netbird.Peer, error)
	Routes(ctx context.Context) ([]netbird.Route, error)
	Groups(ctx context.Context) ([]netbird.Group, error)
	CreateGroup(ctx context.Context, req netbird.GroupRequest) (netbird.Group, error)
	UpdateGroup(ctx context.Context, id string, req netbird.GroupRequest) (netbird.Group, error)
	UpdateRoute(ctx context.Context, id string, req netbird.RouteRequest) (netbird.Route, error)
}

// Engine drives the exit-node assignment workflow: resolve peer, ensure
// the per-peer group, attach the group to the default route, verify
// membership. Every step is an idempotent read/verify/write against the
// API; any failure aborts the remaining steps with no rollback, and
// re-invoking the whole operation is safe.
//
// The engine never prints or prompts; callers render its results.
type Engine struct {
	api API
	log *zap.SugaredLogger
}

func New(api API) *Engine {
	return &Engine{api: api, log: zap.S()}
}

// GroupName derives the per-peer distribution group name for a hostname.
func GroupName(hostname string) string {
	return "peer-" + hostname
}

// LocalHostname returns the hostname of the machine the tool runs on,
// used whenever the caller does not name a target peer.
func LocalHostname() string {
	if info, err := host.Info(); err == nil && info.Hostname != "" {
		return info.Hostname
	}
	name, _ := os.Hostname()
	return name
}

// ResolvePeer finds a peer by exact, case-sensitive hostname match. An
// empty hostname resolves the local machine's hostname.
func (e *Engine) ResolvePeer(ctx context.Context, hostname string) (netbird.Peer, error) {
	if hostname == "" {
		hostname = LocalHostname()
	}
	peers, err := e.api.Peers(ctx)
	if err != nil {
		return netbird.Peer{}, err
	}
	return matchPeer(peers, hostname)
}

// EnsureGroup finds or creates the per-peer distribution group. The
// lookup before the create is authoritative within a process; two
// concurrent processes can still race here, the API offers no lock.
func (e *Engine) EnsureGroup(ctx context.Context, peer netbird.Peer) (netbird.Group, error) {
	name := GroupName(peer.Label())

	groups, err := e.api.Groups(ctx)
	if err != nil {
		return netbird.Group{}, err
	}
	for _, g := range groups {
		if g.Name == name {
			return g, nil
		}
	}

	e.log.Infow("creating distribution group", "name", name, "peer", peer.Label())
	return e.api.CreateGroup(ctx, netbird.GroupRequest{Name: name, Peers: []string{peer.ID}})
}

// SetExitNode routes the peer's default traffic through the named exit
// node. All lookups run before the first write, so a failed lookup
// leaves the account untouched. If the peer was attached to another
// exit node it is detached from it first.
func (e *Engine) SetExitNode(ctx context.Context, peerName, exitNodeName string) (*Assignment, error) {
	if peerName == "" {
		peerName = LocalHostname()
	}

	peers, err := e.api.Peers(ctx)
	if err != nil {
		return nil, err
	}

	target, err := matchPeer(peers, peerName)
	if err != nil {
		return nil, err
	}

	exit, err := matchPeer(peers, exitNodeName)
	if errors.Is(err, ErrPeerNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrExitNodeNotFound, exitNodeName)
	}
	if err != nil {
		return nil, err
	}

	routes, err := e.api.Routes(ctx)
	if err != nil {
		return nil, err
	}

	route, err := e.defaultRouteFor(routes, exit)
	if err != nil {
		return nil, err
	}

	group, err := e.EnsureGroup(ctx, target)
	if err != nil {
		return nil, err
	}

	// Detach the group from any other exit-node route first: a peer
	// has at most one exit node at a time.
	var movedFrom []string
	for _, r := range routes {
		if r.ID == route.ID || !r.IsExitNode() || !r.HasGroup(group.ID) {
			continue
		}
		stripped := slices.DeleteFunc(slices.Clone(r.Groups), func(id string) bool { return id == group.ID })
		if _, err := e.api.UpdateRoute(ctx, r.ID, netbird.RouteUpdate(r, stripped)); err != nil {
			return nil, err
		}
		movedFrom = append(movedFrom, peerLabel(peers, r.Peer))
	}

	alreadyActive := route.HasGroup(group.ID)
	if !alreadyActive {
		updated, err := e.api.UpdateRoute(ctx, route.ID,
			netbird.RouteUpdate(route, append(slices.Clone(route.Groups), group.ID)))
		if err != nil {
			return nil, err
		}
		route = updated
	}

	// Normally true from EnsureGroup, but the group may have
	// pre-existed with different membership.
	if !group.HasPeer(target.ID) {
		updated, err := e.api.UpdateGroup(ctx, group.ID, netbird.GroupRequest{
			Name:  group.Name,
			Peers: append(group.PeerIDs(), target.ID),
		})
		if err != nil {
			return nil, err
		}
		group = updated
	}

	e.log.Infow("exit node set", "peer", target.Label(), "exit_node", exit.Label(),
		"route", route.ID, "moved_from", movedFrom, "already_active", alreadyActive)

	return &Assignment{
		Peer:          target,
		ExitNode:      exit,
		Group:         group,
		Route:         route,
		MovedFrom:     movedFrom,
		AlreadyActive: alreadyActive,
	}, nil
}

// RemoveExitNode detaches the peer's per-peer group from every route
// that lists it. The group itself is kept for later reuse. Zero
// detachments means the peer was not an exit-node target.
func (e *Engine) RemoveExitNode(ctx context.Context, peerName string) (*Removal, error) {
	if peerName == "" {
		peerName = LocalHostname()
	}

	peers, err := e.api.Peers(ctx)
	if err != nil {
		return nil, err
	}
	target, err := matchPeer(peers, peerName)
	if err != nil {
		return nil, err
	}

	name := GroupName(target.Label())
	groups, err := e.api.Groups(ctx)
	if err != nil {
		return nil, err
	}

	var group *netbird.Group
	for i := range groups {
		if groups[i].Name == name {
			group = &groups[i]
			break
		}
	}
	if group == nil {
		return &Removal{Peer: target, GroupName: name}, nil
	}

	routes, err := e.api.Routes(ctx)
	if err != nil {
		return nil, err
	}

	var detached []string
	for _, r := range routes {
		if !r.HasGroup(group.ID) {
			continue
		}
		stripped := slices.DeleteFunc(slices.Clone(r.Groups), func(id string) bool { return id == group.ID })
		if _, err := e.api.UpdateRoute(ctx, r.ID, netbird.RouteUpdate(r, stripped)); err != nil {
			return nil, err
		}
		if r.IsExitNode() {
			detached = append(detached, peerLabel(peers, r.Peer))
		} else {
			detached = append(detached, r.Network)
		}
	}

	e.log.Infow("exit node removed", "peer", target.Label(), "detached", detached)
	return &Removal{Peer: target, GroupName: name, Detached: detached}, nil
}

// ListExitNodes aggregates all routes by exit-node peer. Ordering is by
// peer id ascending, or by hostname (case-insensitive) when sortByName
// is set.
func (e *Engine) ListExitNodes(ctx context.Context, sortByName bool) ([]ExitNodeSummary, error) {
	routes, err := e.api.Routes(ctx)
	if err != nil {
		return nil, err
	}
	peers, err := e.api.Peers(ctx)
	if err != nil {
		return nil, err
	}

	summaries := aggregateExitNodes(routes, peers)
	if sortByName {
		sort.SliceStable(summaries, func(i, j int) bool {
			return strings.ToLower(summaries[i].Hostname) < strings.ToLower(summaries[j].Hostname)
		})
	}
	return summaries, nil
}

// PeerInfo reports the peer's derived group, who currently serves it,
// and the full group and exit-node catalogs for display.
func (e *Engine) PeerInfo(ctx context.Context, peerName string) (*Info, error) {
	if peerName == "" {
		peerName = LocalHostname()
	}

	peers, err := e.api.Peers(ctx)
	if err != nil {
		return nil, err
	}
	target, err := matchPeer(peers, peerName)
	if err != nil {
		return nil, err
	}

	groups, err := e.api.Groups(ctx)
	if err != nil {
		return nil, err
	}
	routes, err := e.api.Routes(ctx)
	if err != nil {
		return nil, err
	}

	info := &Info{
		Peer:      target,
		GroupName: GroupName(target.Label()),
		ExitNodes: aggregateExitNodes(routes, peers),
	}

	var groupID string
	for _, g := range groups {
		info.Groups = append(info.Groups, GroupSummary{ID: g.ID, Name: g.Name, PeerCount: len(g.Peers)})
		if g.Name == info.GroupName {
			info.GroupExists = true
			groupID = g.ID
		}
	}

	if info.GroupExists {
		for _, r := range routes {
			if r.IsExitNode() && r.HasGroup(groupID) {
				info.Serving = append(info.Serving, ServingExitNode{
					PeerID:   r.Peer,
					Hostname: peerLabel(peers, r.Peer),
					Enabled:  r.Enabled,
				})
			}
		}
	}

	return info, nil
}

// RoutesForPeer lists the non-exit-node routes visible to the peer,
// either directly or through one of its groups.
func (e *Engine) RoutesForPeer(ctx context.Context, peerName string) ([]netbird.Route, error) {
	if peerName == "" {
		peerName = LocalHostname()
	}

	peers, err := e.api.Peers(ctx)
	if err != nil {
		return nil, err
	}
	target, err := matchPeer(peers, peerName)
	if err != nil {
		return nil, err
	}

	groups, err := e.api.Groups(ctx)
	if err != nil {
		return nil, err
	}
	memberOf := make(map[string]bool)
	for _, g := range groups {
		if g.HasPeer(target.ID) {
			memberOf[g.ID] = true
		}
	}

	routes, err := e.api.Routes(ctx)
	if err != nil {
		return nil, err
	}

	var visible []netbird.Route
	for _, r := range routes {
		if r.IsExitNode() {
			continue
		}
		if slices.Contains(r.Peers, target.ID) {
			visible = append(visible, r)
			continue
		}
		for _, gid := range r.Groups {
			if memberOf[gid] {
				visible = append(visible, r)
				break
			}
		}
	}
	return visible, nil
}

// defaultRouteFor locates the 0.0.0.0/0 route whose exit node is the
// given peer. Multiple default routes per exit node are a configuration
// anomaly: the first match wins and a warning is logged.
func (e *Engine) defaultRouteFor(routes []netbird.Route, exit netbird.Peer) (netbird.Route, error) {
	var matches []netbird.Route
	for _, r := range routes {
		if r.IsExitNode() && r.IsDefault() && r.Peer == exit.ID {
			matches = append(matches, r)
		}
	}
	if len(matches) == 0 {
		return netbird.Route{}, fmt.Errorf("%w: %q", ErrNoDefaultRoute, exit.Label())
	}
	if len(matches) > 1 {
		e.log.Warnw("multiple default routes reference the same exit node, using the first",
			"exit_node", exit.Label(), "routes", len(matches))
	}
	return matches[0], nil
}

func matchPeer(peers []netbird.Peer, hostname string) (netbird.Peer, error) {
	var matches []netbird.Peer
	for _, p := range peers {
		if p.Matches(hostname) {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 0:
		return netbird.Peer{}, fmt.Errorf("%w: %q", ErrPeerNotFound, hostname)
	case 1:
		return matches[0], nil
	default:
		return netbird.Peer{}, fmt.Errorf("%w: %q", ErrAmbiguousPeer, hostname)
	}
}

func peerLabel(peers []netbird.Peer, id string) string {
	for _, p := range peers {
		if p.ID == id {
			return p.Label()
		}
	}
	return id
}

func aggregateExitNodes(routes []netbird.Route, peers []netbird.Peer) []ExitNodeSummary {
	byPeer := make(map[string]*ExitNodeSummary)
	for _, r := range routes {
		if !r.IsExitNode() {
			continue
		}
		s, ok := byPeer[r.Peer]
		if !ok {
			s = &ExitNodeSummary{PeerID: r.Peer, Hostname: peerLabel(peers, r.Peer)}
			byPeer[r.Peer] = s
		}
		s.TotalRoutes++
		if r.Enabled {
			s.EnabledRoutes++
		}
		s.Networks = append(s.Networks, RouteNetwork{Network: r.Network, Enabled: r.Enabled})
	}

	summaries := make([]ExitNodeSummary, 0, len(byPeer))
	for _, s := range byPeer {
		summaries = append(summaries, *s)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].PeerID < summaries[j].PeerID })
	return summaries
}
