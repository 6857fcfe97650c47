package engine

import (
	"fmt"
	"math"
	"strconv"
)

// SettingInfo describes one script-visible module setting.
type SettingInfo struct {
	Name  string
	Desc  string
	Value any
}

// Settable is implemented by modules whose settings are reachable from
// config scripts. The script layer discovers it by type assertion.
type Settable interface {
	SetSetting(name string, value any) error
	Settings() []SettingInfo
}

// Coercion helpers for setting values crossing the script boundary, where
// every number arrives as a float64.

func AsInt(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("expected an integer, got %v", x)
		}
		return int(x), nil
	case string:
		n, err := strconv.Atoi(x)
		if err != nil {
			return 0, fmt.Errorf("expected an integer, got %q", x)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("expected an integer, got %T", v)
	}
}

func AsFloat(v any) (float64, error) {
	switch x := v.(type) {
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case float64:
		return x, nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, fmt.Errorf("expected a number, got %q", x)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

func AsBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		b, err := strconv.ParseBool(x)
		if err != nil {
			return false, fmt.Errorf("expected a bool, got %q", x)
		}
		return b, nil
	default:
		return false, fmt.Errorf("expected a bool, got %T", v)
	}
}

func AsString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case fmt.Stringer:
		return x.String(), nil
	case float64, int, int64, bool:
		return fmt.Sprint(x), nil
	default:
		return "", fmt.Errorf("expected a string, got %T", v)
	}
}
