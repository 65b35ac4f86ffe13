package session

// Mode is a supported game mode. The first four are the vanilla client modes;
// the rest are server-side variants selected from the active mod bitset.
type Mode uint8

const (
	ModeStd Mode = iota
	ModeTaiko
	ModeCatch
	ModeMania

	ModeStdRelax
	ModeTaikoRelax
	ModeCatchRelax
	ModeStdAutopilot

	ModeCount // number of supported modes
)

// Vanilla returns the client-facing base mode for a server-side variant.
func (m Mode) Vanilla() Mode {
	switch m {
	case ModeStdRelax, ModeStdAutopilot:
		return ModeStd
	case ModeTaikoRelax:
		return ModeTaiko
	case ModeCatchRelax:
		return ModeCatch
	default:
		return m
	}
}

// IsRelax reports whether m is a relax variant.
func (m Mode) IsRelax() bool {
	return m == ModeStdRelax || m == ModeTaikoRelax || m == ModeCatchRelax
}

// String returns the canonical short mode name.
func (m Mode) String() string {
	switch m {
	case ModeStd:
		return "std"
	case ModeTaiko:
		return "taiko"
	case ModeCatch:
		return "catch"
	case ModeMania:
		return "mania"
	case ModeStdRelax:
		return "std_rx"
	case ModeTaikoRelax:
		return "taiko_rx"
	case ModeCatchRelax:
		return "catch_rx"
	case ModeStdAutopilot:
		return "std_ap"
	default:
		return "unknown"
	}
}

// ModeFromMods derives the effective game mode from the raw client mode byte
// and the active mod bitset. The relax mod forces the relax variant of
// std/taiko/catch and leaves mania unchanged; autopilot applies to std only.
// An out-of-range raw mode falls back to std.
func ModeFromMods(raw uint8, mods Mods) Mode {
	base := Mode(raw)
	if base > ModeMania {
		base = ModeStd
	}

	switch {
	case mods.Has(ModRelax):
		switch base {
		case ModeStd:
			return ModeStdRelax
		case ModeTaiko:
			return ModeTaikoRelax
		case ModeCatch:
			return ModeCatchRelax
		default:
			return ModeMania
		}
	case mods.Has(ModAutopilot):
		if base == ModeStd {
			return ModeStdAutopilot
		}
		return base
	default:
		return base
	}
}
