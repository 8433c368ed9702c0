// Package phase is the conversation state machine. Nine phases move forward
// only, with a single SUSPICIOUS recovery branch; ENDED is terminal.
package phase

// Phase is the current conversational strategy state.
type Phase string

const (
	Initial          Phase = "INITIAL"
	Greeting         Phase = "GREETING"
	BuildingRapport  Phase = "BUILDING_RAPPORT"
	FinancialContext Phase = "FINANCIAL_CONTEXT"
	Request          Phase = "REQUEST"
	Extraction       Phase = "EXTRACTION"
	Suspicious       Phase = "SUSPICIOUS"
	Closing          Phase = "CLOSING"
	Ended            Phase = "ENDED"
)

// maxTurns caps how long a conversation may sit in each phase before it is
// forced forward.
var maxTurns = map[Phase]int{
	Initial:          1,
	Greeting:         3,
	BuildingRapport:  5,
	FinancialContext: 5,
	Request:          3,
	Extraction:       15,
	Suspicious:       3,
	Closing:          2,
	Ended:            0,
}

// forward is the legal forward successor used when a turn budget runs out.
var forward = map[Phase]Phase{
	Initial:          Greeting,
	Greeting:         BuildingRapport,
	BuildingRapport:  FinancialContext,
	FinancialContext: Request,
	Request:          Extraction,
	Extraction:       Closing,
	Suspicious:       Closing,
	Closing:          Ended,
}

const (
	// Extraction hands off to Closing only once the yield is nearly
	// complete and the conversation has run long enough to be credible.
	extractionDoneScore = 0.9
	extractionMinTurns  = 12
)

// Signals carries the per-turn evidence the machine transitions on.
type Signals struct {
	ScamConfidence      float64
	HasFinancialContext bool
	HasDirectRequest    bool
	ExtractionProgress  float64
	CounterpartyEnded   bool
}

// Transition records one state change for the session log.
type Transition struct {
	From   Phase  `json:"from"`
	To     Phase  `json:"to"`
	Turn   int    `json:"turn"`
	Reason string `json:"reason"`
}

// Result is the outcome of stepping the machine one turn.
type Result struct {
	Phase     Phase
	ShouldEnd bool
	Reason    string
}

// Machine tracks the phase of one conversation. Not safe for concurrent
// use; callers hold it inside a session.
type Machine struct {
	current    Phase
	turnCount  int
	phaseTurns int
	history    []Transition
}

func NewMachine() *Machine {
	return &Machine{current: Initial}
}

func (m *Machine) Phase() Phase          { return m.current }
func (m *Machine) TurnCount() int        { return m.turnCount }
func (m *Machine) History() []Transition { return m.history }

// Step consumes this turn's signals and advances the machine. Unexpected
// conditions clamp to the current phase; conversational continuity wins
// over strictness.
func (m *Machine) Step(s Signals) Result {
	m.turnCount++
	m.phaseTurns++

	if m.current == Ended {
		return Result{Phase: Ended, ShouldEnd: true, Reason: "conversation already ended"}
	}

	if s.CounterpartyEnded {
		m.move(Ended, "counterparty terminated")
		return Result{Phase: Ended, ShouldEnd: true, Reason: "counterparty terminated"}
	}

	next := m.current
	reason := "holding phase"

	switch m.current {
	case Initial:
		next, reason = Greeting, "initial classification done"

	case Greeting:
		if s.HasFinancialContext || s.HasDirectRequest {
			next, reason = FinancialContext, "financial context detected early"
		} else if m.phaseTurns >= maxTurns[Greeting] {
			next, reason = BuildingRapport, "greeting turns exhausted"
		}

	case BuildingRapport:
		if s.HasDirectRequest {
			next, reason = Request, "direct request received"
		} else if s.HasFinancialContext || m.phaseTurns >= maxTurns[BuildingRapport] {
			next, reason = FinancialContext, "financial context or rapport turns exhausted"
		}

	case FinancialContext:
		if s.HasDirectRequest || m.phaseTurns >= maxTurns[FinancialContext] {
			next, reason = Request, "advancing to request"
		}

	case Request:
		if m.phaseTurns >= maxTurns[Request] {
			next, reason = Extraction, "advancing to extraction"
		}

	case Extraction:
		if s.ExtractionProgress >= extractionDoneScore && m.turnCount >= extractionMinTurns {
			next, reason = Closing, "extraction targets met"
		} else if m.phaseTurns >= maxTurns[Extraction] {
			next, reason = Closing, "extraction turns exhausted"
		}

	case Suspicious:
		if m.phaseTurns >= maxTurns[Suspicious] {
			next, reason = Closing, "could not recover from suspicion"
		} else {
			next, reason = Extraction, "recovery attempt"
		}

	case Closing:
		if m.phaseTurns >= maxTurns[Closing] {
			next, reason = Ended, "closing complete"
		}
	}

	if next != m.current {
		m.move(next, reason)
	}

	return Result{
		Phase:     m.current,
		ShouldEnd: m.current == Ended,
		Reason:    reason,
	}
}

// MarkSuspicious branches into the recovery state. Only reachable from
// REQUEST or EXTRACTION; anywhere else the request is clamped.
func (m *Machine) MarkSuspicious() {
	if m.current == Request || m.current == Extraction {
		m.move(Suspicious, "counterparty suspicion detected")
	}
}

func (m *Machine) move(to Phase, reason string) {
	m.history = append(m.history, Transition{
		From:   m.current,
		To:     to,
		Turn:   m.turnCount,
		Reason: reason,
	})
	m.current = to
	m.phaseTurns = 0
}
