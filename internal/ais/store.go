package ais

import (
	"sort"
	"sync"
	"time"

	"seawatch/internal/cpa"
)

type StoreConfig struct {
	// MaxTargets limits memory use. When exceeded, the stalest target is
	// evicted before a new one is inserted.
	MaxTargets int
}

// Store is the MMSI-keyed target map. Staleness never removes a target by
// itself — a sparse feed should not lose history — only capacity pressure
// does.
type Store struct {
	mu sync.RWMutex

	cfg StoreConfig

	targets map[int]Target
}

func NewStore(cfg StoreConfig) *Store {
	if cfg.MaxTargets <= 0 {
		cfg.MaxTargets = 500
	}
	return &Store{
		cfg:     cfg,
		targets: make(map[int]Target),
	}
}

// Upsert merges update into the target with the same MMSI, creating it on
// first sighting, and returns the merged value.
func (s *Store) Upsert(update Target) Target {
	if s == nil || update.MMSI == 0 {
		return update
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.targets[update.MMSI]
	if !ok {
		existing = Target{MMSI: update.MMSI, NavStatus: NavStatusUnknown}
		if len(s.targets) >= s.cfg.MaxTargets {
			s.evictStalestLocked()
		}
	}
	merged := existing.Merge(update)
	s.targets[update.MMSI] = merged
	return merged
}

func (s *Store) evictStalestLocked() {
	for len(s.targets) >= s.cfg.MaxTargets {
		var stalestMMSI int
		var stalestAt time.Time
		first := true
		for mmsi, t := range s.targets {
			if first || t.LastUpdate.Before(stalestAt) {
				stalestMMSI = mmsi
				stalestAt = t.LastUpdate
				first = false
			}
		}
		delete(s.targets, stalestMMSI)
	}
}

func (s *Store) Get(mmsi int) (Target, bool) {
	if s == nil {
		return Target{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.targets[mmsi]
	return t, ok
}

func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.targets)
}

// Snapshot returns a copy of the target map, safe to read from any goroutine.
func (s *Store) Snapshot() map[int]Target {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int]Target, len(s.targets))
	for mmsi, t := range s.targets {
		out[mmsi] = t
	}
	return out
}

// List returns all targets sorted by MMSI for deterministic presentation.
func (s *Store) List() []Target {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	out := make([]Target, 0, len(s.targets))
	for _, t := range s.targets {
		out = append(out, t)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].MMSI < out[j].MMSI })
	return out
}

// RecomputeCPA re-runs the collision geometry for every stored target against
// the own vessel's current track. Targets without a position or a usable
// velocity pairing get their CPA cleared.
func (s *Store) RecomputeCPA(own cpa.Vessel) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for mmsi, t := range s.targets {
		updated := t
		updated.CpaNm = nil
		updated.TcpaMin = nil
		if t.LatDeg != nil && t.LonDeg != nil {
			res, ok := cpa.Compute(own, cpa.Vessel{
				LatDeg: *t.LatDeg,
				LonDeg: *t.LonDeg,
				SogKn:  t.SogKn,
				CogDeg: t.CogDeg,
			})
			if ok {
				c, tc := res.CpaNm, res.TcpaMin
				updated.CpaNm = &c
				updated.TcpaMin = &tc
			}
		}
		s.targets[mmsi] = updated
	}
}

// Warnings returns the targets whose current CPA/TCPA classify as a warning,
// sorted by ascending CPA so the closest risk comes first.
func (s *Store) Warnings() []Target {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	out := make([]Target, 0)
	for _, t := range s.targets {
		if t.CpaNm == nil || t.TcpaMin == nil {
			continue
		}
		if (cpa.Result{CpaNm: *t.CpaNm, TcpaMin: *t.TcpaMin}).IsWarning() {
			out = append(out, t)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return *out[i].CpaNm < *out[j].CpaNm })
	return out
}
