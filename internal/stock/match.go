// internal/stock/match.go
package stock

import "github.com/solatis/stemkeeper/internal/types"

/*
 * Matching engine.
 *
 * AddStem runs once per incoming stem and produces at most one bouquet.
 *
 * Flow:
 *   1. stock[s]++
 *   2. stock[s] > ceiling[s]: the stem cannot widen any design's hand, stop
 *   3. active[s]++
 *   4. scan designs in registration order, first fit wins:
 *      a. hand = min(active, max) elementwise
 *      b. sum(hand) < total: skip
 *      c. any hand[s] < min[s]: skip (hand is the upper bound per species)
 *      d. trim sum(hand) - total, ascending species, never below min
 *      e. withdraw hand from stock and reclip active
 *   5. no fit: the stem stays in stock for later scans
 *
 * Trim always reaches zero excess: tightening guarantees sum(min) <= total
 * for any design that passes (b) and (c), so the slack sum(hand - min)
 * covers sum(hand) - total.
 */

// Outcome classifies what a stem arrival did.
type Outcome int

const (
	// OutcomeRetained means the stem was stocked and no design completed.
	OutcomeRetained Outcome = iota
	// OutcomeSaturated means stock already covered the ceiling; no scan ran.
	OutcomeSaturated
	// OutcomeAssembled means a bouquet was emitted.
	OutcomeAssembled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSaturated:
		return "saturated"
	case OutcomeAssembled:
		return "assembled"
	default:
		return "retained"
	}
}

// Result is the outcome of one stem arrival.
type Result struct {
	Outcome Outcome
	Bouquet Bouquet // set when Outcome == OutcomeAssembled
}

// Assembled reports whether a bouquet was emitted.
func (r Result) Assembled() bool {
	return r.Outcome == OutcomeAssembled
}

// AddStem stocks one stem of species s and attempts a single match.
func (p *Pool) AddStem(s types.Species) (Result, error) {
	if !p.ready {
		return Result{}, types.ErrPoolNotReady
	}
	if !s.Valid() {
		return Result{}, types.ErrInvalidSpecies
	}

	p.stock[s]++
	if p.stock[s] > p.ceiling[s] {
		return Result{Outcome: OutcomeSaturated}, nil
	}
	p.active[s]++

	for _, d := range p.designs {
		hand, ok := d.Hand(&p.active)
		if !ok {
			continue
		}
		p.withdraw(&hand)
		return Result{
			Outcome: OutcomeAssembled,
			Bouquet: Bouquet{Design: d.Name, Size: d.Size, Stems: hand},
		}, nil
	}

	return Result{Outcome: OutcomeRetained}, nil
}

// Hand computes the stems this design would take from active, trimmed to
// exactly Total. Returns false when no allocation can complete the design.
func (d *Design) Hand(active *Counts) (Counts, bool) {
	var hand Counts
	inHand := 0
	for s := range hand {
		hand[s] = min(active[s], d.Max[s])
		inHand += hand[s]
	}
	if inHand < d.Total {
		return hand, false
	}
	for s := range hand {
		if hand[s] < d.Min[s] {
			return hand, false
		}
	}

	excess := inHand - d.Total
	for s := 0; excess > 0 && s < types.NumSpecies; s++ {
		room := hand[s] - d.Min[s]
		if room <= 0 {
			continue
		}
		take := min(excess, room)
		hand[s] -= take
		excess -= take
	}
	return hand, true
}

// withdraw removes a bouquet's stems from stock and reclips active.
func (p *Pool) withdraw(hand *Counts) {
	for s, n := range hand {
		if n == 0 {
			continue
		}
		p.stock[s] -= n
		if p.reclip == ReclipCeiling {
			p.active[s] = min(p.stock[s], p.ceiling[s])
		} else {
			p.active[s] = min(p.stock[s], types.MaxStems)
		}
	}
}
