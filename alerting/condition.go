package alerting

import (
	"fmt"

	"github.com/careertrack/metrics-engine/common"
)

// CompareCondition applies the rule condition to the measured value against the threshold.
// Equality comparisons are exact, no epsilon is applied.
func CompareCondition(value float64, condition common.Condition, threshold float64) (bool, error) {
	switch condition {
	case common.ConditionGt:
		return value > threshold, nil
	case common.ConditionGte:
		return value >= threshold, nil
	case common.ConditionLt:
		return value < threshold, nil
	case common.ConditionLte:
		return value <= threshold, nil
	case common.ConditionEq:
		return value == threshold, nil
	default:
		return false, fmt.Errorf("unknown condition '%s'", condition)
	}
}

// IsValidCondition returns true if the provided condition is one of the supported comparison operators
func IsValidCondition(condition common.Condition) bool {
	switch condition {
	case common.ConditionGt, common.ConditionGte, common.ConditionLt, common.ConditionLte, common.ConditionEq:
		return true
	default:
		return false
	}
}
