package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"hktravel/internal/domain"
)

type ListOptions struct {
	Line string
}

// ArrivalStore holds the latest arrival board per stop and the current
// service status of every line.
type ArrivalStore struct {
	mu     sync.RWMutex
	boards map[string]*domain.ArrivalBoard
	byLine map[string]map[string]struct{}

	statuses        map[string]domain.ServiceStatus
	statusUpdatedAt time.Time

	staleAfter time.Duration
	now        func() time.Time
}

func New(staleAfter time.Duration) *ArrivalStore {
	return &ArrivalStore{
		boards:     make(map[string]*domain.ArrivalBoard),
		byLine:     make(map[string]map[string]struct{}),
		statuses:   make(map[string]domain.ServiceStatus),
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// Update replaces the board for stopID. changed is false when the new
// arrivals match the stored ones, in which case only the timestamp moves.
func (s *ArrivalStore) Update(stopID string, arrivals []domain.RealTimeArrival) (domain.ArrivalDelta, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stopID = strings.ToUpper(stopID)
	now := s.now()

	existing, exists := s.boards[stopID]
	if exists && !hasChanged(existing.Arrivals, arrivals) {
		existing.UpdatedAt = now
		return domain.ArrivalDelta{}, false
	}

	if exists {
		s.removeFromLineIndex(existing)
	}

	board := &domain.ArrivalBoard{
		StopID:    stopID,
		Arrivals:  cloneArrivals(arrivals),
		UpdatedAt: now,
	}
	s.boards[stopID] = board
	s.addToLineIndex(board)

	return domain.ArrivalDelta{
		Type:   domain.DeltaUpdate,
		StopID: stopID,
		Board:  cloneBoard(board),
	}, true
}

// PruneStale drops boards that have not been refreshed within staleAfter
func (s *ArrivalStore) PruneStale() []domain.ArrivalDelta {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.staleAfter)
	var deltas []domain.ArrivalDelta

	for id, b := range s.boards {
		if b.UpdatedAt.Before(cutoff) {
			deltas = append(deltas, domain.ArrivalDelta{
				Type:   domain.DeltaRemove,
				StopID: id,
			})
			s.removeFromLineIndex(b)
			delete(s.boards, id)
		}
	}

	sort.Slice(deltas, func(i, j int) bool { return deltas[i].StopID < deltas[j].StopID })
	return deltas
}

func (s *ArrivalStore) Get(stopID string) (*domain.ArrivalBoard, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.boards[strings.ToUpper(stopID)]
	if !ok {
		return nil, false
	}
	return cloneBoard(b), true
}

// List returns boards sorted by stop ID, optionally only those served by a line
func (s *ArrivalStore) List(opts ListOptions) []*domain.ArrivalBoard {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	if opts.Line != "" {
		for id := range s.byLine[strings.ToUpper(opts.Line)] {
			ids = append(ids, id)
		}
	} else {
		ids = make([]string, 0, len(s.boards))
		for id := range s.boards {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	result := make([]*domain.ArrivalBoard, 0, len(ids))
	for _, id := range ids {
		result = append(result, cloneBoard(s.boards[id]))
	}
	return result
}

// SnapshotForStops returns the boards known for the given stops, skipping unknown ones
func (s *ArrivalStore) SnapshotForStops(stopIDs []string) []*domain.ArrivalBoard {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{}, len(stopIDs))
	var result []*domain.ArrivalBoard

	for _, id := range stopIDs {
		id = strings.ToUpper(id)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if b, ok := s.boards[id]; ok {
			result = append(result, cloneBoard(b))
		}
	}
	return result
}

func (s *ArrivalStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.boards)
}

// SetStatuses stores the latest line statuses and reports whether any changed
func (s *ArrivalStore) SetStatuses(statuses []domain.ServiceStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.statusUpdatedAt = s.now()

	changed := len(statuses) != len(s.statuses)
	next := make(map[string]domain.ServiceStatus, len(statuses))
	for _, st := range statuses {
		old, ok := s.statuses[st.Line]
		if !ok || old.Status != st.Status || old.Message != st.Message {
			changed = true
		}
		next[st.Line] = st
	}
	s.statuses = next
	return changed
}

// Statuses returns line statuses sorted by line code
func (s *ArrivalStore) Statuses() []domain.ServiceStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.ServiceStatus, 0, len(s.statuses))
	for _, st := range s.statuses {
		result = append(result, st)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Line < result[j].Line })
	return result
}

func (s *ArrivalStore) StatusUpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statusUpdatedAt
}

func (s *ArrivalStore) addToLineIndex(b *domain.ArrivalBoard) {
	for _, a := range b.Arrivals {
		line := strings.ToUpper(a.Line)
		if s.byLine[line] == nil {
			s.byLine[line] = make(map[string]struct{})
		}
		s.byLine[line][b.StopID] = struct{}{}
	}
}

func (s *ArrivalStore) removeFromLineIndex(b *domain.ArrivalBoard) {
	for _, a := range b.Arrivals {
		line := strings.ToUpper(a.Line)
		if s.byLine[line] != nil {
			delete(s.byLine[line], b.StopID)
			if len(s.byLine[line]) == 0 {
				delete(s.byLine, line)
			}
		}
	}
}

func hasChanged(old, new []domain.RealTimeArrival) bool {
	if len(old) != len(new) {
		return true
	}
	for i := range old {
		o, n := old[i], new[i]
		if o.Line != n.Line || o.Destination != n.Destination ||
			o.MinutesAway != n.MinutesAway || o.Platform != n.Platform {
			return true
		}
	}
	return false
}

func cloneArrivals(src []domain.RealTimeArrival) []domain.RealTimeArrival {
	out := make([]domain.RealTimeArrival, len(src))
	copy(out, src)
	return out
}

func cloneBoard(b *domain.ArrivalBoard) *domain.ArrivalBoard {
	c := *b
	c.Arrivals = cloneArrivals(b.Arrivals)
	return &c
}
