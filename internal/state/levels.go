package state

// XPPerLevel is the width of every level band.
const XPPerLevel = 200

// LevelFor returns the level reached with xp total experience.
func LevelFor(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/XPPerLevel + 1
}

// LevelInfo describes where a total XP value sits within its level.
type LevelInfo struct {
	Level          int     `json:"level"`
	CurrentLevelXP int     `json:"current_level_xp"`
	NextLevelXP    int     `json:"next_level_xp"`
	Progress       float64 `json:"level_progress"`
}

// LevelInfoFor derives the level band for xp.
func LevelInfoFor(xp int) LevelInfo {
	level := LevelFor(xp)
	current := xp - (level-1)*XPPerLevel
	return LevelInfo{
		Level:          level,
		CurrentLevelXP: current,
		NextLevelXP:    XPPerLevel,
		Progress:       levelProgress(current, XPPerLevel),
	}
}

// levelProgress is the percentage of the band completed, within [0, 100].
func levelProgress(current, next int) float64 {
	if next <= 0 {
		return 0
	}
	pct := float64(current) / float64(next) * 100
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}
