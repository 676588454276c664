package model

// SilkPair is the two jockey silk colors of a horse. Pairs compare by value,
// element-wise and in order.
type SilkPair [2]string

// BodyColor is a labelled body color. Colors compare by Value only.
type BodyColor struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// Horse is a generated competitor.
type Horse struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Condition int       `json:"condition"` // [MinCondition, MaxCondition]
	Silks     SilkPair  `json:"silks"`
	Color     BodyColor `json:"color"`
}

// Run is one scheduled race: a fixed-size subset of the roster plus a distance.
// Entrants are kept in draw order; ranking happens at execution time.
type Run struct {
	Entrants []Horse `json:"entrants"`
	Distance int     `json:"distance"`
}

// Schedule is the ordered sequence of runs for one session.
type Schedule []Run

// SpeedClass is the presentation playback rate derived from a horse's condition.
type SpeedClass string

const (
	SpeedSlow   SpeedClass = "slow"
	SpeedNormal SpeedClass = "normal"
	SpeedFast   SpeedClass = "fast"
)

// Result is one ranked entry of an executed run.
type Result struct {
	Horse Horse      `json:"horse"`
	Score float64    `json:"score"`
	Speed SpeedClass `json:"speed"`
}

// IDs returns the horse IDs of a ranking in order.
func IDs(results []Result) []int {
	ids := make([]int, len(results))
	for i, r := range results {
		ids[i] = r.Horse.ID
	}
	return ids
}

// Clone returns a copy of the schedule whose entrant slices are not shared
// with s.
func (s Schedule) Clone() Schedule {
	if s == nil {
		return nil
	}
	out := make(Schedule, len(s))
	for i, run := range s {
		out[i] = Run{
			Entrants: append([]Horse(nil), run.Entrants...),
			Distance: run.Distance,
		}
	}
	return out
}
