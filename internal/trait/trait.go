// Package trait mediates the typed, named values that modules attach to
// every organism in a run. Modules declare their trait usage during
// setup, the registry arbitrates ownership conflicts, and the resulting
// layout is frozen before the first update so that every organism record
// in the run shares one identical shape.
package trait

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind enumerates the value types a trait may carry.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindFloat
	KindString
	KindFloatVec
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindFloatVec:
		return "floatvec"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Role describes how a module relates to a trait it registers.
type Role int

const (
	// RoleOwned: exactly one module writes the trait; others may read it.
	RoleOwned Role = iota
	// RoleRequired: the module reads a trait some other module must own.
	RoleRequired
	// RoleGenerated: module-internal working trait; uniqueness not required.
	RoleGenerated
)

func (r Role) String() string {
	switch r {
	case RoleOwned:
		return "owned"
	case RoleRequired:
		return "required"
	case RoleGenerated:
		return "generated"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

func zeroValue(kind Kind) any {
	switch kind {
	case KindBool:
		return false
	case KindInt:
		return int64(0)
	case KindFloat:
		return 0.0
	case KindString:
		return ""
	case KindFloatVec:
		return []float64(nil)
	default:
		panic(fmt.Sprintf("trait: unknown kind %d", int(kind)))
	}
}

// FormatValue renders a trait value in the form used by population
// files and report rows: bare literals, float vectors comma-separated
// inside brackets.
func FormatValue(v any) string {
	switch val := v.(type) {
	case bool:
		if val {
			return "1"
		}
		return "0"
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case string:
		return val
	case []float64:
		var sb strings.Builder
		sb.WriteByte('[')
		for i, f := range val {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
		}
		sb.WriteByte(']')
		return sb.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func valueMatchesKind(v any, kind Kind) bool {
	switch kind {
	case KindBool:
		_, ok := v.(bool)
		return ok
	case KindInt:
		_, ok := v.(int64)
		return ok
	case KindFloat:
		_, ok := v.(float64)
		return ok
	case KindString:
		_, ok := v.(string)
		return ok
	case KindFloatVec:
		_, ok := v.([]float64)
		return ok
	default:
		return false
	}
}
