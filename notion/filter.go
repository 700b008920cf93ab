package notion

import (
	"fmt"

	"github.com/gopherdb/notionsql/internal/nerr"
)

// evalFilter evaluates a crosscompiler-built filter tree against one page
// object's properties. AND/OR nodes recurse into their children;
// leaf nodes compare one property against one verb/value pair.
func evalFilter(page map[string]any, filter map[string]any) (bool, error) {
	if children, ok := filter["and"].([]any); ok {
		return evalChildren(page, children, true)
	}
	if children, ok := filter["or"].([]any); ok {
		return evalChildren(page, children, false)
	}
	return evalCondition(page, filter)
}

func evalChildren(page map[string]any, children []any, isAnd bool) (bool, error) {
	for _, raw := range children {
		cond, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		result, err := evalFilter(page, cond)
		if err != nil {
			return false, err
		}
		if isAnd && !result {
			return false, nil
		}
		if !isAnd && result {
			return true, nil
		}
	}
	return isAnd, nil
}

func evalCondition(page map[string]any, cond map[string]any) (bool, error) {
	propName, ok := cond["property"].(string)
	if !ok {
		return false, nerr.New(nerr.KindDatabase, "notion.evalCondition", fmt.Errorf("filter condition missing \"property\""))
	}
	properties, _ := page["properties"].(map[string]any)
	propObj, ok := properties[propName].(map[string]any)
	if !ok {
		return false, nerr.Newf(nerr.KindDatabase, "notion.evalCondition", "page has no property %q", propName)
	}
	for typeKey, raw := range cond {
		if typeKey == "property" {
			continue
		}
		typeFilter, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		operand, err := extractOperand(propObj, typeKey)
		if err != nil {
			return false, err
		}
		for verb, want := range typeFilter {
			return compareVerb(verb, operand, want)
		}
	}
	return false, nerr.Newf(nerr.KindDatabase, "notion.evalCondition", "filter condition for %q has no recognizable type key", propName)
}

// extractOperand pulls the comparable scalar out of a page's stored
// property value: title/rich_text unwrap their first text run, date
// unwraps "start", everything else (number, checkbox, id) is already
// scalar.
func extractOperand(propObj map[string]any, typeKey string) (any, error) {
	raw, ok := propObj[typeKey]
	if !ok {
		return nil, nerr.Newf(nerr.KindDatabase, "notion.extractOperand", "property missing %q", typeKey)
	}
	switch typeKey {
	case "title", "rich_text":
		arr, ok := raw.([]any)
		if !ok || len(arr) == 0 {
			return "", nil
		}
		entry, ok := arr[0].(map[string]any)
		if !ok {
			return "", nil
		}
		text, _ := entry["text"].(map[string]any)
		content, _ := text["content"].(string)
		return content, nil
	case "date":
		date, ok := raw.(map[string]any)
		if !ok {
			return nil, nerr.New(nerr.KindDatabase, "notion.extractOperand", fmt.Errorf("expected date object"))
		}
		return date["start"], nil
	default:
		return raw, nil
	}
}

func compareVerb(verb string, operand, want any) (bool, error) {
	switch verb {
	case "equals":
		return valuesEqual(operand, want), nil
	case "does_not_equal":
		return !valuesEqual(operand, want), nil
	case "less_than":
		return compareOrdered(operand, want, func(a, b float64) bool { return a < b })
	case "less_than_or_equal_to":
		return compareOrdered(operand, want, func(a, b float64) bool { return a <= b })
	case "greater_than":
		return compareOrdered(operand, want, func(a, b float64) bool { return a > b })
	case "greater_than_or_equal_to":
		return compareOrdered(operand, want, func(a, b float64) bool { return a >= b })
	default:
		return false, nerr.Newf(nerr.KindDatabase, "notion.compareVerb", "unsupported filter verb %q", verb)
	}
}

func valuesEqual(a, b any) bool {
	if af, aok := asComparableFloat(a); aok {
		if bf, bok := asComparableFloat(b); bok {
			return af == bf
		}
	}
	return a == b
}

func compareOrdered(a, b any, less func(a, b float64) bool) (bool, error) {
	af, aok := asComparableFloat(a)
	bf, bok := asComparableFloat(b)
	if !aok || !bok {
		return false, nerr.Newf(nerr.KindDatabase, "notion.compareOrdered", "cannot order-compare %T and %T", a, b)
	}
	return less(af, bf), nil
}

func asComparableFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case float32:
		return float64(x), true
	default:
		return 0, false
	}
}
