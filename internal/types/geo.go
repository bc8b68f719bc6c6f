// README: Identifiers and coordinates shared by all modules.
package types

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

type ID string

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point is inside WGS84 bounds.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// NewID returns a random 32-char hex identifier.
func NewID() ID {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return ID(hex.EncodeToString([]byte(time.Now().Format("20060102150405.000000000"))))
	}
	return ID(hex.EncodeToString(b[:]))
}
