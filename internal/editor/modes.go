package editor

// Mode is the modal cursor state driving what a click does.
type Mode int

const (
	ModeIdle Mode = iota
	ModeConnect
	ModeLinkTerminal
	ModeUnlinkTerminal
	ModeMeasure
	ModeSetGlobalPosition
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "IDLE"
	case ModeConnect:
		return "CONNECT"
	case ModeLinkTerminal:
		return "LINK"
	case ModeUnlinkTerminal:
		return "UNLINK"
	case ModeMeasure:
		return "MEASURE"
	case ModeSetGlobalPosition:
		return "SET_GLOBAL_POSITION"
	default:
		return "UNKNOWN"
	}
}
