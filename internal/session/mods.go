package session

// Mods is the client's active mod bitset.
type Mods int32

const (
	ModNoMod       Mods = 0
	ModNoFail      Mods = 1 << 0
	ModEasy        Mods = 1 << 1
	ModTouchscreen Mods = 1 << 2
	ModHidden      Mods = 1 << 3
	ModHardRock    Mods = 1 << 4
	ModSuddenDeath Mods = 1 << 5
	ModDoubleTime  Mods = 1 << 6
	ModRelax       Mods = 1 << 7
	ModHalfTime    Mods = 1 << 8
	ModNightcore   Mods = 1 << 9
	ModFlashlight  Mods = 1 << 10
	ModAutoplay    Mods = 1 << 11
	ModSpunOut     Mods = 1 << 12
	ModAutopilot   Mods = 1 << 13
	ModPerfect     Mods = 1 << 14
	ModKey4        Mods = 1 << 15
	ModKey5        Mods = 1 << 16
	ModKey6        Mods = 1 << 17
	ModKey7        Mods = 1 << 18
	ModKey8        Mods = 1 << 19
	ModFadeIn      Mods = 1 << 20
	ModRandom      Mods = 1 << 21
	ModCinema      Mods = 1 << 22
	ModTarget      Mods = 1 << 23
	ModKey9        Mods = 1 << 24
	ModKeyCoop     Mods = 1 << 25
	ModKey1        Mods = 1 << 26
	ModKey3        Mods = 1 << 27
	ModKey2        Mods = 1 << 28
	ModScoreV2     Mods = 1 << 29
	ModMirror      Mods = 1 << 30
)

// Has reports whether all bits in m are set.
func (mods Mods) Has(m Mods) bool {
	return mods&m == m
}
