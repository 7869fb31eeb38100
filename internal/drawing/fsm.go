// Package drawing manages user-placed annotations: horizontal lines, trend
// lines and Fibonacci retracements. Tool selection is an explicit finite
// state machine with a pure transition function; the Manager renders
// committed drawings onto a chart surface.
package drawing

// Tool is the armed drawing tool.
type Tool int

const (
	ToolNone Tool = iota
	ToolHorizontal
	ToolTrend
	ToolFibonacci
)

func (t Tool) String() string {
	switch t {
	case ToolHorizontal:
		return "horizontal"
	case ToolTrend:
		return "trend"
	case ToolFibonacci:
		return "fibonacci"
	default:
		return "none"
	}
}

// ParseTool resolves a tool name; "none" disarms.
func ParseTool(name string) (Tool, bool) {
	switch name {
	case "none":
		return ToolNone, true
	case "horizontal":
		return ToolHorizontal, true
	case "trend":
		return ToolTrend, true
	case "fibonacci":
		return ToolFibonacci, true
	}
	return ToolNone, false
}

// pointsNeeded returns how many clicks complete a drawing for the tool.
func (t Tool) pointsNeeded() int {
	switch t {
	case ToolHorizontal:
		return 1
	case ToolTrend, ToolFibonacci:
		return 2
	default:
		return 0
	}
}

// Point is one click on the chart: a time coordinate and a price.
// Horizontal lines only use the price.
type Point struct {
	Time  int64   `json:"time"`
	Price float64 `json:"price"`
}

// Kind tags a committed drawing.
type Kind int

const (
	KindHorizontal Kind = iota
	KindTrend
	KindFibonacci
)

// Drawing is one committed annotation.
type Drawing struct {
	Kind    Kind
	Anchors []Point
}

// State is the tool FSM state: idle (ToolNone) or awaiting points for an
// armed tool.
type State struct {
	Tool    Tool
	Pending []Point
}

// Idle returns the disarmed state.
func Idle() State { return State{Tool: ToolNone} }

// Arm returns the state for a freshly armed tool, pending points cleared.
func Arm(t Tool) State { return State{Tool: t} }

// Transition is the pure FSM step: given the current state and a click, it
// returns the next state and, when the click completes a drawing, the
// committed drawing. Committing always disarms.
func Transition(st State, click Point) (State, *Drawing) {
	need := st.Tool.pointsNeeded()
	if need == 0 {
		return st, nil // no tool armed, clicks pass through
	}

	collected := append(append([]Point(nil), st.Pending...), click)
	if len(collected) < need {
		return State{Tool: st.Tool, Pending: collected}, nil
	}

	var kind Kind
	switch st.Tool {
	case ToolHorizontal:
		kind = KindHorizontal
	case ToolTrend:
		kind = KindTrend
	case ToolFibonacci:
		kind = KindFibonacci
	}
	return Idle(), &Drawing{Kind: kind, Anchors: collected}
}

// FibRatios are the seven fixed retracement ratios.
var FibRatios = []float64{0, 0.236, 0.382, 0.5, 0.618, 0.786, 1}

// FibLevels derives the retracement price levels from two anchor prices,
// order-independent: level_i = high - ratio_i * (high - low).
func FibLevels(a, b float64) []float64 {
	high, low := a, b
	if low > high {
		high, low = low, high
	}
	levels := make([]float64, len(FibRatios))
	for i, r := range FibRatios {
		levels[i] = high - r*(high-low)
	}
	return levels
}
