package indicator

import (
	"fmt"
	"math"

	"barfeed/internal/model"
)

// SARPoint is the SAR computed for one bar together with the state left
// behind by that bar.
type SARPoint struct {
	Value float64 `json:"value"`
	Long  bool    `json:"long"`
	AF    float64 `json:"af"`
	EP    float64 `json:"ep"`
}

// ParabolicSAR is the stop-and-reverse state machine. The first Update seeds
// the state (long, EP = high, SAR = low) and yields no point; every later
// Update produces one.
type ParabolicSAR struct {
	step    float64
	maxStep float64

	seeded bool
	long   bool
	ep     float64
	af     float64
	prev   float64
}

// NewParabolicSAR returns a SAR with acceleration step and cap maxStep.
// Requires 0 < step <= maxStep.
func NewParabolicSAR(step, maxStep float64) (*ParabolicSAR, error) {
	if !(step > 0) || maxStep < step {
		return nil, fmt.Errorf("indicator: ParabolicSAR step %v max %v: %w", step, maxStep, model.ErrInvalidParameter)
	}
	return &ParabolicSAR{step: step, maxStep: maxStep}, nil
}

// Update feeds one bar. ok is false only for the seeding bar.
func (s *ParabolicSAR) Update(high, low float64) (pt SARPoint, ok bool) {
	if !s.seeded {
		s.seeded = true
		s.long = true
		s.ep = high
		s.af = s.step
		s.prev = low
		return SARPoint{}, false
	}

	sar := s.prev + s.af*(s.ep-s.prev)
	if s.long {
		if low < sar {
			s.long = false
			s.ep = low
			s.af = s.step
			s.prev = high
		} else {
			if high > s.ep {
				s.ep = high
				s.af = math.Min(s.af+s.step, s.maxStep)
			}
			s.prev = sar
		}
	} else {
		if high > sar {
			s.long = true
			s.ep = high
			s.af = s.step
			s.prev = low
		} else {
			if low < s.ep {
				s.ep = low
				s.af = math.Min(s.af+s.step, s.maxStep)
			}
			s.prev = sar
		}
	}
	return SARPoint{Value: sar, Long: s.long, AF: s.af, EP: s.ep}, true
}

// Long reports the current trend direction.
func (s *ParabolicSAR) Long() bool { return s.long }

// ParabolicSARSeries walks bars from first to last with one state machine and
// returns n-1 points, one per bar after the first.
func ParabolicSARSeries(bars []model.Bar, step, maxStep float64) ([]SARPoint, error) {
	s, err := NewParabolicSAR(step, maxStep)
	if err != nil {
		return nil, err
	}
	if err := requireLen("ParabolicSAR", len(bars), 2); err != nil {
		return nil, err
	}

	out := make([]SARPoint, 0, len(bars)-1)
	for _, b := range bars {
		if pt, ok := s.Update(b.High, b.Low); ok {
			out = append(out, pt)
		}
	}
	return out, nil
}

// SARValues projects the SAR values out of points.
func SARValues(points []SARPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}
