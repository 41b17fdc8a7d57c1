package pkg

func Filter[T any](items []T, predicate func(T) bool) []T {
	filtered := []T{}
	for _, item := range items {
		if predicate(item) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// Converts a value suspected to be some numeric type to an int.
// Query arguments arrive as int, int64 or float64 depending on where they
// were parsed, so this kind of coercion is needed all over the query path.
func NumToInt(num any) int {
	switch num := num.(type) {
	case int:
		return num
	case int64:
		return int(num)
	case float64:
		return int(num)
	}
	return 0
}

// NumToFloat reports the value as a float64 and whether it was numeric at all.
func NumToFloat(num any) (float64, bool) {
	switch num := num.(type) {
	case int:
		return float64(num), true
	case int64:
		return float64(num), true
	case float64:
		return num, true
	}
	return 0, false
}
