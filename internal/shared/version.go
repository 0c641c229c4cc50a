package shared

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// Build metadata. Version and BuildTime are overridable at compile time:
//
//	go build -ldflags "-X civicpulse/internal/shared.Version=1.2.0"
var (
	Version   = "1.0.0"
	BuildTime = time.Now().Format(time.RFC3339)
	BuildID   = generateBuildID()
)

// generateBuildID derives a short stable identifier from the version and
// build date
func generateBuildID() string {
	h := sha256.New()
	h.Write([]byte(Version))
	h.Write([]byte(time.Now().Format("2006-01-02")))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}
