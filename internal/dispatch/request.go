package dispatch

// Operation is the action selected by a Request.
type Operation int

const (
	OpWatch Operation = iota
	OpHelp
	OpSet
	OpToggle
	OpColor
)

func (o Operation) String() string {
	switch o {
	case OpHelp:
		return "help"
	case OpSet:
		return "set"
	case OpToggle:
		return "toggle"
	case OpColor:
		return "color"
	default:
		return "watch"
	}
}

// Request is the parsed command line. The *Given fields distinguish an
// explicitly empty value from an absent flag.
type Request struct {
	Help       bool
	Set        string
	SetGiven   bool
	Toggle     bool
	Color      string
	ColorGiven bool
}

// Operation resolves precedence: help, set, toggle, color, then watch.
func (r Request) Operation() Operation {
	switch {
	case r.Help:
		return OpHelp
	case r.SetGiven:
		return OpSet
	case r.Toggle:
		return OpToggle
	case r.ColorGiven:
		return OpColor
	default:
		return OpWatch
	}
}
