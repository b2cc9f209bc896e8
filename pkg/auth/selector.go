package auth

// StrategyKind identifies one of the authentication strategies
type StrategyKind int

const (
	StrategyDisabled StrategyKind = iota
	StrategyEmulated
	StrategyLive
)

func (k StrategyKind) String() string {
	switch k {
	case StrategyEmulated:
		return "emulated"
	case StrategyLive:
		return "live"
	default:
		return "disabled"
	}
}

// SelectStrategy maps the two configuration flags to a strategy. The emulator
// flag is ignored when authentication is disabled.
func SelectStrategy(authEnabled, emulatorEnabled bool) StrategyKind {
	switch {
	case !authEnabled:
		return StrategyDisabled
	case emulatorEnabled:
		return StrategyEmulated
	default:
		return StrategyLive
	}
}
