// Package engine ties the instrument feed, the navigation aggregator, the
// target store, and the collision geometry together. It is the only component
// that routes raw input; everything downstream consumes bus events or
// snapshots.
package engine

import (
	"sync"
	"time"

	"seawatch/internal/ais"
	"seawatch/internal/bus"
	"seawatch/internal/cpa"
	"seawatch/internal/nav"
	"seawatch/internal/nmea"
)

type Config struct {
	// FollowNav keeps the own-vessel track used for CPA in sync with the
	// navigation aggregator. SetOwnVessel overrides it until ClearOwnVessel.
	FollowNav bool
}

type Engine struct {
	cfg Config

	agg    *nav.Aggregator
	store  *ais.Store
	bridge *ais.Bridge
	bus    *bus.Bus

	mu       sync.RWMutex
	ownFixed *cpa.Vessel // manual override; nil means follow the aggregator
	lastErr  *nmea.Error
	rejected uint64
}

func New(cfg Config, store *ais.Store, b *bus.Bus) *Engine {
	return &Engine{
		cfg:    cfg,
		agg:    nav.New(),
		store:  store,
		bridge: ais.NewBridge(),
		bus:    b,
	}
}

// HandleLine routes one line from the instrument feed. AIVDM/AIVDO sentences
// go through the radio bridge into the target store; everything else is an
// instrument sentence for the aggregator. Parse failures update the error
// state and are published, never fatal: one bad sentence must not poison the
// stream.
func (e *Engine) HandleLine(line string) {
	now := time.Now().UTC()

	if nmea.IsAIVDM(line) {
		if tgt, ok := e.bridge.DecodeSentence(line, now); ok {
			e.ingestTarget(tgt)
		}
		return
	}

	rec, perr := nmea.Decode(line)
	if perr != nil {
		e.recordError(perr)
		return
	}
	if !e.agg.Apply(now, rec) {
		return
	}

	snap := e.agg.Snapshot()
	e.bus.Publish(bus.TopicNavSnapshot, snap.View())

	if e.cfg.FollowNav {
		if own, ok := e.ownVessel(snap); ok {
			e.store.RecomputeCPA(own)
			e.publishWarnings()
		}
	}
}

// HandleEnvelope routes one JSON envelope from an AIS relay (TCP stream or
// MQTT). The error return satisfies the source callback signature; rejected
// envelopes are counted, not failed, because live feeds interleave message
// types outside the supported set.
func (e *Engine) HandleEnvelope(raw []byte) error {
	tgt, ok := ais.DecodeEnvelope(raw, time.Now().UTC())
	if !ok {
		e.mu.Lock()
		e.rejected++
		e.mu.Unlock()
		return nil
	}
	e.ingestTarget(tgt)
	return nil
}

func (e *Engine) ingestTarget(update ais.Target) {
	merged := e.store.Upsert(update)

	if own, ok := e.ownVessel(e.agg.Snapshot()); ok {
		e.store.RecomputeCPA(own)
		if refreshed, found := e.store.Get(merged.MMSI); found {
			merged = refreshed
		}
	}

	e.bus.Publish(bus.TopicTargets, merged)
	e.publishWarnings()
}

func (e *Engine) publishWarnings() {
	if warnings := e.store.Warnings(); len(warnings) > 0 {
		e.bus.Publish(bus.TopicWarnings, warnings)
	}
}

// SetOwnVessel pins the own-vessel track used for collision geometry,
// overriding the aggregator until ClearOwnVessel. Useful when the instrument
// feed carries no GPS.
func (e *Engine) SetOwnVessel(latDeg, lonDeg, sogKn, cogDeg float64) {
	own := cpa.Vessel{LatDeg: latDeg, LonDeg: lonDeg, SogKn: &sogKn, CogDeg: &cogDeg}
	e.mu.Lock()
	e.ownFixed = &own
	e.mu.Unlock()

	e.store.RecomputeCPA(own)
	e.publishWarnings()
}

func (e *Engine) ClearOwnVessel() {
	e.mu.Lock()
	e.ownFixed = nil
	e.mu.Unlock()
}

// ownVessel resolves the track to run CPA against: the manual override when
// set, otherwise the aggregator's position and velocity.
func (e *Engine) ownVessel(snap nav.Snapshot) (cpa.Vessel, bool) {
	e.mu.RLock()
	fixed := e.ownFixed
	e.mu.RUnlock()
	if fixed != nil {
		return *fixed, true
	}

	pos := snap.Position()
	if pos == nil {
		return cpa.Vessel{}, false
	}
	return cpa.Vessel{
		LatDeg: pos.LatDeg,
		LonDeg: pos.LonDeg,
		SogKn:  snap.SogKn(),
		CogDeg: snap.CogDeg(),
	}, true
}

func (e *Engine) recordError(perr *nmea.Error) {
	e.mu.Lock()
	e.lastErr = perr
	e.mu.Unlock()
	e.bus.Publish(bus.TopicParseError, perr)
}

func (e *Engine) Navigation() nav.View { return e.agg.Snapshot().View() }

func (e *Engine) Targets() []ais.Target { return e.store.List() }

func (e *Engine) Warnings() []ais.Target { return e.store.Warnings() }

// LastError is the most recent per-sentence parse failure. Connection-level
// errors live on the feed client's snapshot instead.
func (e *Engine) LastError() *nmea.Error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastErr
}

// RejectedEnvelopes counts relay messages outside the supported type set.
func (e *Engine) RejectedEnvelopes() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.rejected
}
