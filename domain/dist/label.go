package dist

// Label identifies an outcome category attributing probability and damage to
// a cause (hit, crit, miss, save-fail, ...). Front ends may introduce their
// own labels; the core treats them opaquely.
type Label string

// Common categories used by the attack/save front ends.
const (
	LabelHit      Label = "hit"
	LabelCrit     Label = "crit"
	LabelMiss     Label = "miss"
	LabelSaveFail Label = "save-fail"
	LabelSavePass Label = "save-pass"
)
