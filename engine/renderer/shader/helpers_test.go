package shader

import "fmt"

func callf(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
