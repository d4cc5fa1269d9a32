package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// NewID generates a new hex-based ID with a prefix (used for projects, scene
// objects, assets and users).
// Format: "prefix_hexstring" (e.g., "prj_a1b2c3d4e5f6...")
func NewID(prefix string) string {
	b := make([]byte, 9)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms; keep the id unique anyway
		return fmt.Sprintf("%s_%x", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s_%s", prefix, hex.EncodeToString(b))
}
