package textsim

import "github.com/pmezard/go-difflib/difflib"

// LineDiff returns a line diff turning want into got. Lines are prefixed
// "  " (common), "- " (missing from got) or "+ " (extra in got). An empty
// result means the inputs are identical.
func LineDiff(want, got []string) []string {
	var out []string
	changed := false
	emit := func(prefix string, lines []string) {
		for _, l := range lines {
			out = append(out, prefix+l)
		}
	}
	for _, op := range difflib.NewMatcher(want, got).GetOpCodes() {
		switch op.Tag {
		case 'e':
			emit("  ", want[op.I1:op.I2])
		case 'd':
			emit("- ", want[op.I1:op.I2])
			changed = true
		case 'i':
			emit("+ ", got[op.J1:op.J2])
			changed = true
		case 'r':
			emit("- ", want[op.I1:op.I2])
			emit("+ ", got[op.J1:op.J2])
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return out
}
