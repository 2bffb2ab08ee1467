package logic

import "math"

// Group positions within CodePlan.Groups.
const (
	GroupHundreds = iota
	GroupTens
	GroupUnits
)

// MaxEncodable is the largest total three decimal digit groups can show.
const MaxEncodable = 999

// CodeGroup places one digit group on the strip.
type CodeGroup struct {
	Name  string
	Color Color
	// LEDs lists the strip indices of the group; the first d are lit for digit d.
	LEDs []int
}

// Layout is the fixed mapping from display roles to strip indices.
type Layout struct {
	Pixels int
	// GaugeLEDs lists strip indices in fill order.
	GaugeLEDs []int
	// FullScale is the ratio at which the gauge is completely lit.
	FullScale  float64
	Brightness float64
	Groups     [3]CodeGroup
	// Sequential shows the digit groups one after another on shared LEDs.
	// Otherwise the groups must be disjoint and are shown together.
	Sequential bool
	// PlaceholderBlinks is how many times a zero placeholder blinks the status
	// LED in sequential mode. Zero shows it as one steady frame.
	PlaceholderBlinks int
}

// CodeSlot tells how long a step of the code presentation is held.
type CodeSlot int

const (
	SlotDigit CodeSlot = iota
	SlotGap
	SlotBlinkOn
	SlotBlinkOff
	SlotLead
)

// CodeStep is one frame of the code presentation.
type CodeStep struct {
	Frame Frame
	Slot  CodeSlot
}

// gradient runs from red at the empty end of the gauge to green at the full end.
var gradient = []Color{
	{255, 0, 0},
	{255, 0, 0},
	{255, 100, 0},
	{255, 180, 0},
	{255, 255, 0},
	{255, 255, 0},
	{175, 255, 0},
	{100, 255, 0},
	{0, 255, 0},
	{0, 255, 0},
}

var (
	errorColor     = Color{255, 0, 0}
	celebrateColor = Color{255, 255, 255}
	flashColor     = Color{0, 20, 0}
)

// Mapper turns totals and deviations into render plans and frames.
type Mapper struct {
	layout   Layout
	dailyMax int
}

// NewMapper creates a mapper for a validated layout.
func NewMapper(layout Layout, dailyMax int) *Mapper {
	if dailyMax > MaxEncodable {
		dailyMax = MaxEncodable
	}
	return &Mapper{layout: layout, dailyMax: dailyMax}
}

// Render builds the render plan for a total and a deviation.
// It has no side effects and returns the same plan for the same inputs.
func (m *Mapper) Render(total int, dev Deviation) RenderPlan {
	return RenderPlan{
		Gauge: m.gauge(dev),
		Code:  m.code(total),
	}
}

func (m *Mapper) gauge(dev Deviation) GaugePlan {
	level := 0.0
	if m.layout.FullScale > 0 && !math.IsNaN(dev.Ratio) {
		level = math.Min(math.Max(dev.Ratio/m.layout.FullScale, 0), 1)
	}

	n := len(m.layout.GaugeLEDs)
	plan := GaugePlan{
		Level: level,
		Lit:   int(math.Round(level * float64(n))),
	}
	plan.Pixels = make([]Pixel, 0, plan.Lit)
	for k := 0; k < plan.Lit; k++ {
		plan.Pixels = append(plan.Pixels, Pixel{
			Index: m.layout.GaugeLEDs[k],
			Color: gradient[k*len(gradient)/n].Scale(m.layout.Brightness),
		})
	}
	return plan
}

func (m *Mapper) code(total int) CodePlan {
	plan := CodePlan{Total: total}
	if plan.Total < 0 {
		plan.Total = 0
	}
	if plan.Total >= m.dailyMax {
		plan.Total = m.dailyMax
		plan.Saturated = true
	}

	digits := [3]int{plan.Total / 100, plan.Total / 10 % 10, plan.Total % 10}
	for i, d := range digits {
		g := m.layout.Groups[i]
		plan.Groups[i] = DigitGroup{
			Name:  g.Name,
			Digit: d,
			Color: g.Color,
			LEDs:  append([]int(nil), g.LEDs[:d]...),
		}
	}
	plan.Groups[GroupTens].Placeholder = digits[GroupTens] == 0 && digits[GroupHundreds] > 0
	plan.Groups[GroupUnits].Placeholder = digits[GroupUnits] == 0
	return plan
}

// Blank returns a frame with every LED off.
func (m *Mapper) Blank() Frame {
	return Frame{Pixels: make([]Color, m.layout.Pixels)}
}

// GaugeFrame returns the strip state showing the gauge of plan.
func (m *Mapper) GaugeFrame(plan RenderPlan) Frame {
	f := m.Blank()
	for _, p := range plan.Gauge.Pixels {
		f.Pixels[p.Index] = p.Color
	}
	return f
}

// CodeFrames returns the presentation sequence for the coded total. A content
// step is followed by a blank gap. In sequential mode a group is shown when its
// digit is non-zero or it carries a placeholder, which lights only the status
// LED, blinking PlaceholderBlinks times when set; leading zero groups are
// skipped.
func (m *Mapper) CodeFrames(plan RenderPlan) []CodeStep {
	if !m.layout.Sequential {
		f := m.Blank()
		for _, g := range plan.Code.Groups {
			for _, idx := range g.LEDs {
				f.Pixels[idx] = g.Color
			}
		}
		return []CodeStep{{f, SlotDigit}, {m.Blank(), SlotGap}}
	}

	var steps []CodeStep
	for _, g := range plan.Code.Groups {
		if g.Digit == 0 && !g.Placeholder {
			continue
		}
		f := m.Blank()
		for _, idx := range g.LEDs {
			f.Pixels[idx] = g.Color
		}
		f.Status = g.Placeholder
		if g.Placeholder && m.layout.PlaceholderBlinks > 0 {
			for i := 0; i < m.layout.PlaceholderBlinks; i++ {
				steps = append(steps, CodeStep{f, SlotBlinkOn}, CodeStep{m.Blank(), SlotBlinkOff})
			}
			continue
		}
		steps = append(steps, CodeStep{f, SlotDigit}, CodeStep{m.Blank(), SlotGap})
	}
	return steps
}

// FlashFrame returns the dim fill that acknowledges a counted event.
func (m *Mapper) FlashFrame() Frame {
	f := m.Blank()
	for i := range f.Pixels {
		f.Pixels[i] = flashColor
	}
	return f
}

// ErrorFrame returns the pattern shown when the configuration is unusable.
func (m *Mapper) ErrorFrame() Frame {
	return ErrorFrame(m.layout.Pixels)
}

// ErrorFrame returns n dim red pixels with the status LED on.
func ErrorFrame(n int) Frame {
	f := Frame{Pixels: make([]Color, n), Status: true}
	for i := range f.Pixels {
		f.Pixels[i] = errorColor.Scale(0.2)
	}
	return f
}

// CelebrateFrame returns step number step of two opposing lights rotating
// around the strip.
func (m *Mapper) CelebrateFrame(step int) Frame {
	f := m.Blank()
	n := len(f.Pixels)
	if n == 0 {
		return f
	}
	half := n / 2
	if half == 0 {
		f.Pixels[0] = celebrateColor
		return f
	}
	pos := step % half
	f.Pixels[pos] = celebrateColor
	f.Pixels[pos+half] = celebrateColor
	return f
}
