package quotations

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// generateCode returns QT-<year>-<4 digits>.
func generateCode(now time.Time) string {
	return fmt.Sprintf("QT-%d-%04d", now.Year(), rand.IntN(10000))
}
