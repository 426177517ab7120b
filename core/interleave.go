package core

import "context"

// Move is one sequencer's share of an interleaved run.
type Move struct {
	Sequencer      *Sequencer
	Steps          int // Signed step budget
	StepsPerSecond int // 0 for the sequencer default
}

// Interleave advances several sequencers one unit step at a time, in
// round-robin order, until every budget is spent. Each unit step is paced
// by its own sequencer, so a slow motor holds back the others.
// It returns the final step count of every move, in order.
func Interleave(ctx context.Context, moves ...Move) ([]int, error) {
	remaining := make([]uint, len(moves))
	dirs := make([]int, len(moves))
	counts := make([]int, len(moves))
	for i, m := range moves {
		if m.Sequencer == nil {
			return nil, configError("interleave move " + itoa(i) + " has no sequencer")
		}
		// Budgets beyond the bounds would only spin on saturated steps
		steps := m.Sequencer.clamp(m.Steps)
		dirs[i] = 1
		remaining[i] = uint(steps)
		if steps < 0 {
			dirs[i] = -1
			remaining[i] = uint(-steps)
		}
		counts[i] = m.Sequencer.StepCount()
	}

	for active := true; active; {
		active = false
		for i, m := range moves {
			if remaining[i] == 0 {
				continue
			}
			active = true
			count, err := m.Sequencer.StepContext(ctx, dirs[i], m.StepsPerSecond, false)
			counts[i] = count
			if err != nil {
				return counts, err
			}
			remaining[i]--
		}
	}
	return counts, nil
}
