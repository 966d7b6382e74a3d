package bridge

import "fmt"

var sizeUnits = [...]string{"", "Ki", "Mi", "Gi", "Ti", "Pi", "Ei", "Zi", "Yi"}

// HumanReadableSize formats a byte count with binary units, e.g. "1.5 MiB".
func (a *App) HumanReadableSize(size int64) string {
	return HumanReadableSize(size)
}

// HumanReadableSize formats a byte count with binary units, e.g. "1.5 MiB".
func HumanReadableSize(size int64) string {
	floatsize := float32(size)
	for _, unit := range sizeUnits {
		if floatsize < 1024 {
			return fmt.Sprintf("%.1f %sB", floatsize, unit)
		}
		floatsize /= 1024
	}
	return fmt.Sprintf("%dB", size)
}
