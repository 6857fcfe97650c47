package collect

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrBadFilter = errors.New("malformed trait filter")

type filterKind uint8

const (
	kindList filterKind = iota
	kindSummary
	kindCount
)

// Filter is a parsed aggregation request: empty (list the values), a named
// summary statistic, or a comparison count like ">2.5".
type Filter struct {
	kind      filterKind
	name      string
	op        string
	threshold float64
}

// canonical summary names; parsing folds the aliases.
var summaryAliases = map[string]string{
	"mean": "mean", "ave": "mean", "average": "mean",
	"median":   "median",
	"variance": "variance",
	"stddev":   "stddev", "std_dev": "stddev",
	"sum": "sum", "total": "sum",
	"min": "min", "minimum": "min",
	"max": "max", "maximum": "max",
	"entropy": "entropy",
	"mode":    "mode", "dom": "mode", "dominant": "mode",
	"unique": "richness", "richness": "richness",
	"min_id": "min_id",
	"max_id": "max_id",
}

var countOps = []string{"==", "!=", "<=", ">=", "=", "<", ">"}

// ParseFilter interprets a filter string. The empty string lists the raw
// values.
func ParseFilter(s string) (Filter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Filter{kind: kindList}, nil
	}

	if name, ok := summaryAliases[strings.ToLower(s)]; ok {
		return Filter{kind: kindSummary, name: name}, nil
	}

	for _, op := range countOps {
		if strings.HasPrefix(s, op) {
			raw := strings.TrimSpace(s[len(op):])
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return Filter{}, fmt.Errorf("%w: %q has a non-numeric threshold", ErrBadFilter, s)
			}
			if op == "==" {
				op = "="
			}
			return Filter{kind: kindCount, op: op, threshold: v}, nil
		}
	}

	return Filter{}, fmt.Errorf("%w: %q", ErrBadFilter, s)
}

// Name returns the canonical summary name, or the comparison form.
func (f Filter) Name() string {
	switch f.kind {
	case kindSummary:
		return f.name
	case kindCount:
		return f.op + strconv.FormatFloat(f.threshold, 'g', -1, 64)
	default:
		return ""
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ApplyFloats runs the filter over a numeric series and formats the result.
func (f Filter) ApplyFloats(vals []float64) (string, error) {
	switch f.kind {
	case kindList:
		parts := make([]string, len(vals))
		for i, v := range vals {
			parts[i] = formatFloat(v)
		}
		return strings.Join(parts, ","), nil
	case kindCount:
		return strconv.Itoa(f.countMatches(vals)), nil
	}

	switch f.name {
	case "mean":
		return formatFloat(Mean(vals)), nil
	case "median":
		return formatFloat(Median(vals)), nil
	case "variance":
		return formatFloat(Variance(vals)), nil
	case "stddev":
		return formatFloat(StdDev(vals)), nil
	case "sum":
		return formatFloat(Sum(vals)), nil
	case "min":
		return formatFloat(Min(vals)), nil
	case "max":
		return formatFloat(Max(vals)), nil
	case "entropy":
		return formatFloat(Entropy(vals)), nil
	case "mode":
		return formatFloat(Mode(vals)), nil
	case "richness":
		return strconv.Itoa(Richness(vals)), nil
	case "min_id":
		return strconv.Itoa(MinIndex(vals)), nil
	case "max_id":
		return strconv.Itoa(MaxIndex(vals)), nil
	}
	return "", fmt.Errorf("%w: %q", ErrBadFilter, f.name)
}

// ApplyStrings runs the categorical subset over string values; numeric-only
// filters error.
func (f Filter) ApplyStrings(vals []string) (string, error) {
	switch f.kind {
	case kindList:
		return strings.Join(vals, ","), nil
	case kindCount:
		return "", fmt.Errorf("%w: comparison filters need a numeric trait", ErrBadFilter)
	}

	switch f.name {
	case "mode":
		return ModeString(vals), nil
	case "richness":
		return strconv.Itoa(RichnessString(vals)), nil
	case "entropy":
		return formatFloat(EntropyString(vals)), nil
	}
	return "", fmt.Errorf("%w: %q needs a numeric trait", ErrBadFilter, f.name)
}

func (f Filter) countMatches(vals []float64) int {
	n := 0
	for _, v := range vals {
		match := false
		switch f.op {
		case "=":
			match = v == f.threshold
		case "!=":
			match = v != f.threshold
		case "<":
			match = v < f.threshold
		case "<=":
			match = v <= f.threshold
		case ">":
			match = v > f.threshold
		case ">=":
			match = v >= f.threshold
		}
		if match {
			n++
		}
	}
	return n
}
