package model

// PlotsPerWard is 30 primary plots followed by 30 subdivision plots
const (
	PlotsPerWard        = 60
	PrimaryPlotsPerWard = 30
)

// Price thresholds separating plot size classes (gil)
const (
	MediumPlotMinPrice uint32 = 6_000_000
	LargePlotMinPrice  uint32 = 25_000_000
)

// SizeClass represents the size of a housing plot
type SizeClass int

const (
	SizeSmall SizeClass = iota
	SizeMedium
	SizeLarge
)

func (s SizeClass) String() string {
	switch s {
	case SizeSmall:
		return "Small"
	case SizeMedium:
		return "Medium"
	case SizeLarge:
		return "Large"
	}
	return "Unknown"
}

// Short returns the single letter label used in ward listings
func (s SizeClass) Short() string {
	return s.String()[:1]
}

// SizeFor classifies a plot by its price
func SizeFor(price uint32) SizeClass {
	switch {
	case price < MediumPlotMinPrice:
		return SizeSmall
	case price < LargePlotMinPrice:
		return SizeMedium
	default:
		return SizeLarge
	}
}

// PlotFlags is the raw info flag byte of a plot entry
type PlotFlags uint8

const (
	PlotOwned PlotFlags = 1 << iota
	PlotVisitorsAllowed
	PlotHasSearchComment
	PlotHouseBuilt
	PlotOwnedByFC
)

// PlotObservation is the observed state of one plot
type PlotObservation struct {
	Index int       `json:"index"`
	Price uint32    `json:"price"`
	Flags PlotFlags `json:"flags"`
}

// Owned reports whether the plot owned bit is set
func (p PlotObservation) Owned() bool {
	return p.Flags&PlotOwned != 0
}

// SizeClass is always derived from the price
func (p PlotObservation) SizeClass() SizeClass {
	return SizeFor(p.Price)
}

// IsSubdivision reports whether the plot lies in the ward's subdivision
func (p PlotObservation) IsSubdivision() bool {
	return p.Index >= PrimaryPlotsPerWard
}

// PlotState is one slot of a stored ward. Slots that were never observed keep
// price 0, not owned and Seen false.
type PlotState struct {
	PlotObservation
	Seen bool `json:"seen"`
}

// EmptyWardPlots returns 60 unseen slots with their indexes set
func EmptyWardPlots() []PlotState {
	plots := make([]PlotState, PlotsPerWard)
	for i := range plots {
		plots[i].Index = i
	}
	return plots
}
