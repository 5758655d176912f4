package offline

// Phase is the worker's lifecycle state.
type Phase int

const (
	PhaseUninstalled Phase = iota // no usable cache
	PhaseInstalling               // populating the cache
	PhaseActive                   // installed, waiting to activate
	PhaseServing                  // answering requests from the cache
)

func (p Phase) String() string {
	switch p {
	case PhaseUninstalled:
		return "uninstalled"
	case PhaseInstalling:
		return "installing"
	case PhaseActive:
		return "active"
	case PhaseServing:
		return "serving"
	default:
		return "unknown"
	}
}
