package format

import (
	"fmt"
	"time"
)

// Duration formats an uptime the way HotSpot prints it: "2d 15h 20m 58s".
// Sub-second remainders are dropped.
func Duration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int64(d / time.Second)
	return fmt.Sprintf("%dd %dh %dm %ds", s/86400, s%86400/3600, s%3600/60, s%60)
}
