package terminalgraph

import (
	"context"
	"math"
	"sort"
	"sync"

	"cargonetsim/internal/protocol"
)

// Server is the in-process terminal-graph service: it keeps the pushed
// terminals and route segments and ranks paths by accumulated distance.
// Segments are traversable in both directions, matching the undirected
// connection lines the editor authors.
type Server struct {
	mu        sync.Mutex
	terminals map[string]protocol.TerminalRecord
	segments  []protocol.RouteSegment
}

func NewServer() *Server {
	return &Server{terminals: map[string]protocol.TerminalRecord{}}
}

func (s *Server) ResetServer(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terminals = map[string]protocol.TerminalRecord{}
	s.segments = nil
	return nil
}

func (s *Server) AddTerminal(ctx context.Context, t protocol.TerminalRecord) error {
	if t.ID() == "" {
		return protocol.Errorf(protocol.ErrBadRequest, "terminal without id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terminals[t.ID()] = t
	return nil
}

func (s *Server) AddRoute(ctx context.Context, seg protocol.RouteSegment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.terminals[seg.StartTerminal]; !ok {
		return protocol.Errorf(protocol.ErrBadRequest, "segment %s: unknown terminal %s", seg.ID, seg.StartTerminal)
	}
	if _, ok := s.terminals[seg.EndTerminal]; !ok {
		return protocol.Errorf(protocol.ErrBadRequest, "segment %s: unknown terminal %s", seg.ID, seg.EndTerminal)
	}
	s.segments = append(s.segments, seg)
	return nil
}

func (s *Server) TerminalStatus(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.terminals[id]
	return ok, nil
}

// TerminalCount reports how many terminals are loaded.
func (s *Server) TerminalCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.terminals)
}

// SegmentCount reports how many route segments are loaded.
func (s *Server) SegmentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.segments)
}

// FindTopPaths returns up to k loop-free paths from src to dst ordered by
// total distance (Yen's algorithm over Dijkstra). The dwell flag is part of
// the wire contract but does not enter the distance-based ranking.
func (s *Server) FindTopPaths(ctx context.Context, src, dst string, k int, modeFilter string, ignoreDwell bool) ([]protocol.Path, error) {
	if k < 1 {
		return nil, protocol.Errorf(protocol.ErrBadRequest, "k must be >= 1")
	}
	s.mu.Lock()
	segments := make([]protocol.RouteSegment, 0, len(s.segments))
	for _, seg := range s.segments {
		if modeFilter == "" || modeFilter == ModeAny || seg.Mode == modeFilter {
			segments = append(segments, seg)
		}
	}
	_, srcOK := s.terminals[src]
	_, dstOK := s.terminals[dst]
	s.mu.Unlock()

	if !srcOK || !dstOK {
		return nil, protocol.Errorf(protocol.ErrBadRequest, "unknown endpoint terminal")
	}

	best := shortestPath(segments, src, dst, nil, nil)
	if best == nil {
		return nil, nil
	}
	paths := []pathCandidate{*best}
	var candidates []pathCandidate

	for len(paths) < k {
		prev := paths[len(paths)-1]
		for i := 0; i < len(prev.terminals)-1; i++ {
			spurNode := prev.terminals[i]
			rootTerminals := prev.terminals[:i+1]
			rootSegs := prev.segments[:i]

			bannedSegs := map[string]struct{}{}
			for _, p := range paths {
				if samePrefix(p.terminals, rootTerminals) && len(p.segments) > i {
					bannedSegs[p.segments[i].ID] = struct{}{}
				}
			}
			bannedNodes := map[string]struct{}{}
			for _, t := range rootTerminals[:len(rootTerminals)-1] {
				bannedNodes[t] = struct{}{}
			}

			spur := shortestPath(segments, spurNode, dst, bannedSegs, bannedNodes)
			if spur == nil {
				continue
			}
			total := pathCandidate{
				terminals: append(append([]string{}, rootTerminals[:len(rootTerminals)-1]...), spur.terminals...),
				segments:  append(append([]protocol.RouteSegment{}, rootSegs...), spur.segments...),
			}
			total.dist = 0
			for _, sg := range total.segments {
				total.dist += sg.Attributes.Distance
			}
			if !containsPath(paths, total) && !containsPath(candidates, total) {
				candidates = append(candidates, total)
			}
		}
		if len(candidates) == 0 {
			break
		}
		sort.Slice(candidates, func(a, b int) bool { return candidates[a].dist < candidates[b].dist })
		paths = append(paths, candidates[0])
		candidates = candidates[1:]
	}

	out := make([]protocol.Path, len(paths))
	for i, p := range paths {
		var cost float64
		for _, sg := range p.segments {
			cost += sg.Attributes.Cost
		}
		out[i] = protocol.Path{
			ID:            i + 1,
			Terminals:     p.terminals,
			Segments:      p.segments,
			TotalDistance: p.dist,
			TotalCost:     cost,
		}
	}
	return out, nil
}

type pathCandidate struct {
	terminals []string
	segments  []protocol.RouteSegment
	dist      float64
}

func samePrefix(terminals, prefix []string) bool {
	if len(terminals) < len(prefix) {
		return false
	}
	for i := range prefix {
		if terminals[i] != prefix[i] {
			return false
		}
	}
	return true
}

func containsPath(ps []pathCandidate, p pathCandidate) bool {
	for _, q := range ps {
		if len(q.terminals) != len(p.terminals) {
			continue
		}
		same := true
		for i := range q.terminals {
			if q.terminals[i] != p.terminals[i] {
				same = false
				break
			}
		}
		if same {
			return true
		}
	}
	return false
}

// shortestPath is Dijkstra over the undirected segment list, honoring banned
// segment ids and banned terminals.
func shortestPath(segments []protocol.RouteSegment, src, dst string, bannedSegs, bannedNodes map[string]struct{}) *pathCandidate {
	type hop struct {
		seg  protocol.RouteSegment
		from string
	}
	adj := map[string][]hop{}
	for _, seg := range segments {
		if bannedSegs != nil {
			if _, ok := bannedSegs[seg.ID]; ok {
				continue
			}
		}
		adj[seg.StartTerminal] = append(adj[seg.StartTerminal], hop{seg: seg, from: seg.StartTerminal})
		adj[seg.EndTerminal] = append(adj[seg.EndTerminal], hop{seg: seg, from: seg.EndTerminal})
	}

	dist := map[string]float64{src: 0}
	prevSeg := map[string]protocol.RouteSegment{}
	prevNode := map[string]string{}
	visited := map[string]struct{}{}

	for {
		// Linear extraction; graphs here are small editor graphs.
		cur, curDist := "", math.Inf(1)
		for n, d := range dist {
			if _, ok := visited[n]; ok {
				continue
			}
			if d < curDist {
				cur, curDist = n, d
			}
		}
		if cur == "" {
			return nil
		}
		if cur == dst {
			break
		}
		visited[cur] = struct{}{}
		for _, h := range adj[cur] {
			next := h.seg.EndTerminal
			if cur == h.seg.EndTerminal {
				next = h.seg.StartTerminal
			}
			if bannedNodes != nil {
				if _, ok := bannedNodes[next]; ok {
					continue
				}
			}
			if _, ok := visited[next]; ok {
				continue
			}
			nd := curDist + h.seg.Attributes.Distance
			if old, ok := dist[next]; !ok || nd < old {
				dist[next] = nd
				prevSeg[next] = h.seg
				prevNode[next] = cur
			}
		}
	}

	// Reconstruct.
	var terminals []string
	var segs []protocol.RouteSegment
	for at := dst; ; {
		terminals = append([]string{at}, terminals...)
		if at == src {
			break
		}
		segs = append([]protocol.RouteSegment{prevSeg[at]}, segs...)
		at = prevNode[at]
	}
	return &pathCandidate{terminals: terminals, segments: segs, dist: dist[dst]}
}
