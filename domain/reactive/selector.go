package reactive

import "sort"

// Facts is the per-tick sample of environmental features the selector
// scores against. Inputs read named features; absent features read as zero.
type Facts map[string]float64

// Get returns the named feature or zero.
func (f Facts) Get(name string) float64 {
	return f[name]
}

// Severity determines how an interrupt disposes of the queued plan.
type Severity string

const (
	// SeveritySoft preserves the queue for resumption; only the running
	// action is dropped.
	SeveritySoft Severity = "soft"

	// SeverityCritical abandons the interrupted plan: the remaining queue is
	// cleared.
	SeverityCritical Severity = "critical"
)

// Consideration contributes one weighted, curve-transformed input to a
// candidate's utility.
type Consideration struct {
	Weight float64
	Curve  Curve
	Input  func(Facts) float64
}

// Candidate is one reactive response the selector may fire.
type Candidate struct {
	ID             string
	Severity       Severity
	Considerations []Consideration
}

// Score computes the candidate's utility: the weight-normalized sum of
// curve-transformed inputs, clamped to [0,1].
func (c Candidate) Score(facts Facts) float64 {
	var sum, weights float64
	for _, con := range c.Considerations {
		w := con.Weight
		if w <= 0 {
			continue
		}
		x := con.Input(facts)
		if con.Curve != nil {
			x = con.Curve(x)
		}
		sum += w * clamp(x)
		weights += w
	}
	if weights == 0 {
		return 0
	}
	return clamp(sum / weights)
}

// Signal is the selector's decision to preempt the current plan.
type Signal struct {
	CandidateID string
	Severity    Severity
	Utility     float64
}

// Selector scores candidates each cycle against the running action's
// inertia threshold.
//
// Thread Safety: candidates are registered before the tick loop starts;
// Evaluate is then safe to call from the single tick goroutine.
type Selector struct {
	candidates []Candidate
}

// NewSelector creates a selector over the given candidates. Candidates are
// kept sorted by ID so that score ties break deterministically toward the
// lowest ID.
func NewSelector(candidates ...Candidate) *Selector {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return &Selector{candidates: sorted}
}

// Evaluate scores every candidate and returns a signal when the best score
// strictly exceeds the inertia threshold. Ties between candidates resolve
// to the lowest candidate ID.
func (s *Selector) Evaluate(facts Facts, inertia float64) (Signal, bool) {
	best := -1.0
	var bestCandidate Candidate
	for _, c := range s.candidates {
		score := c.Score(facts)
		if score > best {
			best = score
			bestCandidate = c
		}
	}
	if best <= inertia || best < 0 {
		return Signal{}, false
	}
	return Signal{
		CandidateID: bestCandidate.ID,
		Severity:    bestCandidate.Severity,
		Utility:     best,
	}, true
}

// Candidates returns the registered candidates in evaluation order.
func (s *Selector) Candidates() []Candidate {
	return s.candidates
}
