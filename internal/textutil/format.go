package textutil

import "fmt"

// Percent formats a [0,1] score as a whole percentage, e.g. "79%".
func Percent(score float64) string {
	return fmt.Sprintf("%.0f%%", score*100)
}
