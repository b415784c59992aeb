// Package demos assembles runnable example JoinDefinitions: small,
// self-contained schemas that exercise the engine end to end and serve
// as starting points for cmd/joinctl scenarios.
package demos

import (
	"time"

	"github.com/arcflow/joincore/internal/join"
)

// SecurityEvent is the payload carried by the "event" species: a raw
// signal (e.g. a failed login) tagged with its origin.
type SecurityEvent struct {
	Type string
	IP   string
}

// Alert is the payload carried by the "alert" species once an IP has
// crossed the suspicion threshold.
type Alert struct {
	IP    string
	Level string
}

// ledgerState is the cell held by the "ledger" species: one failure
// count and one energy level per IP, plus which IPs already alerted.
type ledgerState struct {
	counts   map[string]int
	energy   map[string]float64
	alerted  map[string]bool
	lastTick time.Time
}

func newLedgerState() ledgerState {
	return ledgerState{
		counts:  make(map[string]int),
		energy:  make(map[string]float64),
		alerted: make(map[string]bool),
	}
}

// SecurityEvents models a small suspicion/alert escalation pipeline: IP
// addresses accumulate suspicion energy from failed-login events, decay
// it over time, and escalate to an Alert once thresholdCount failures
// land without having decayed away in between.
type SecurityEvents struct {
	Definition *join.JoinDefinition

	Event *join.EmitterAsync[SecurityEvent]
	Tick  *join.EmitterAsync[time.Time]
	Alert *join.EmitterAsync[Alert]

	ledger *join.EmitterAsync[ledgerState]

	thresholdCount int
	decayPerTick   float64
}

// NewSecurityEvents activates a SecurityEvents pipeline on exec.
// thresholdCount is how many undecayed failures from the same IP raise
// an alert; decayPerTick is how much energy each Tick removes from
// every IP's running total.
func NewSecurityEvents(exec join.Executor, thresholdCount int, decayPerTick float64) (*SecurityEvents, error) {
	s := &SecurityEvents{
		Event:          join.NewEmitterAsync[SecurityEvent]("security-event"),
		Tick:           join.NewEmitterAsync[time.Time]("security-tick"),
		Alert:          join.NewEmitterAsync[Alert]("security-alert"),
		ledger:         join.NewEmitterAsync[ledgerState]("security-ledger"),
		thresholdCount: thresholdCount,
		decayPerTick:   decayPerTick,
	}

	eventReaction := join.NewReaction("login-failure-to-suspicion",
		s.onEvent,
		join.VariableSite(s.Event),
		join.VariableSite(s.ledger),
	)

	tickReaction := join.NewReaction("suspicion-decay",
		s.onTick,
		join.VariableSite(s.Tick),
		join.VariableSite(s.ledger),
	)

	// alertHold binds the Alert species to this definition so raised
	// alerts stay pending in its bag; its predicate accepts no value, so
	// it never fires.
	alertHold := join.NewReaction("alert-hold",
		func(_, _ []any) error { return nil },
		join.OtherSite(s.Alert, func(any) bool { return false }),
	)

	jd, err := join.Activate(exec, eventReaction, tickReaction, alertHold)
	if err != nil {
		return nil, err
	}
	s.Definition = jd

	if err := s.ledger.Emit(newLedgerState()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SecurityEvents) onEvent(values, _ []any) error {
	event := values[0].(SecurityEvent)
	state := values[1].(ledgerState)

	if event.Type == "login_failed" {
		state.counts[event.IP]++
		state.energy[event.IP] += 1.0

		if state.counts[event.IP] >= s.thresholdCount && !state.alerted[event.IP] {
			state.alerted[event.IP] = true
			if err := s.Alert.Emit(Alert{IP: event.IP, Level: "high"}); err != nil {
				return err
			}
		}
	}

	return s.ledger.Emit(state)
}

func (s *SecurityEvents) onTick(values, _ []any) error {
	tick := values[0].(time.Time)
	state := values[1].(ledgerState)
	state.lastTick = tick

	for ip, e := range state.energy {
		e -= s.decayPerTick
		if e <= 0 {
			delete(state.energy, ip)
			delete(state.counts, ip)
			delete(state.alerted, ip)
			continue
		}
		state.energy[ip] = e
	}

	return s.ledger.Emit(state)
}
