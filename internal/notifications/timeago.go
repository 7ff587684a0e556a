package notifications

import (
	"fmt"
	"time"
)

// TimeAgo renders a notification age the way the feed displays it. Months are
// approximated as 30 days.
func TimeAgo(now, created time.Time) string {
	diff := int(now.Sub(created).Seconds())
	if diff < 0 {
		diff = 0
	}
	switch {
	case diff < 60:
		return fmt.Sprintf("%ds ago", diff)
	case diff < 3600:
		return fmt.Sprintf("%dm ago", diff/60)
	case diff < 86400:
		return fmt.Sprintf("%dh ago", diff/3600)
	case diff < 2592000:
		return fmt.Sprintf("%dd ago", diff/86400)
	default:
		return fmt.Sprintf("%dmo ago", diff/2592000)
	}
}
