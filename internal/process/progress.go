package process

import (
	"math"
	"regexp"
	"strconv"
)

// ProgressPattern extracts a percentage from one simplified output line.
// When the expression matches several times in a line the last match wins.
type ProgressPattern struct {
	re      *regexp.Regexp
	percent func(groups []string) (int, bool)
}

// IntegerPercent matches expr and reads the percentage from capture group.
func IntegerPercent(expr string, group int) ProgressPattern {
	return ProgressPattern{
		re: regexp.MustCompile(expr),
		percent: func(groups []string) (int, bool) {
			if group >= len(groups) {
				return 0, false
			}
			v, err := strconv.Atoi(groups[group])
			return v, err == nil
		},
	}
}

// TenthsPercent matches expr where intGroup holds whole percent and
// tenthsGroup a single decimal digit. The value is rounded half away from
// zero.
func TenthsPercent(expr string, intGroup, tenthsGroup int) ProgressPattern {
	return ProgressPattern{
		re: regexp.MustCompile(expr),
		percent: func(groups []string) (int, bool) {
			if intGroup >= len(groups) || tenthsGroup >= len(groups) {
				return 0, false
			}
			whole, err := strconv.Atoi(groups[intGroup])
			if err != nil {
				return 0, false
			}
			tenths, err := strconv.Atoi(groups[tenthsGroup])
			if err != nil {
				return 0, false
			}
			return int(math.Round(float64(whole) + float64(tenths)/10)), true
		},
	}
}

// Match reports whether line matches the pattern at all and, if the match
// parsed, the percentage. A line that matches is never forwarded as a log
// line, even when the captured value does not parse.
func (p ProgressPattern) Match(line string) (percent int, matched, ok bool) {
	if p.re == nil {
		return 0, false, false
	}
	all := p.re.FindAllStringSubmatch(line, -1)
	if len(all) == 0 {
		return 0, false, false
	}
	percent, ok = p.percent(all[len(all)-1])
	return percent, true, ok
}

// progressGate suppresses progress values at or below the running threshold.
type progressGate struct {
	threshold int
}

func newProgressGate() *progressGate {
	return &progressGate{threshold: -1}
}

func (g *progressGate) admit(percent int) (int, bool) {
	percent = min(max(percent, 0), 100)
	if percent <= g.threshold {
		return 0, false
	}
	g.threshold = min(percent+2, 99)
	return percent, true
}

// CustomPercent pairs a compiled expression with a caller-supplied parser.
// The parser receives the submatches of the last match in the line.
func CustomPercent(re *regexp.Regexp, parse func(groups []string) (int, bool)) ProgressPattern {
	return ProgressPattern{re: re, percent: parse}
}
