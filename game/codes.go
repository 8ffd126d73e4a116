package game

import (
	crand "crypto/rand"
	"math/big"
	"math/rand/v2"
)

const (
	roomCodeChars  = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	roomCodeLength = 4
)

// NewRoomCode returns a short human-typable join code. Ambiguous glyphs
// (0/O, 1/I/L) are excluded from the alphabet.
func NewRoomCode() string {
	code := make([]byte, roomCodeLength)
	for i := range code {
		n, err := crand.Int(crand.Reader, big.NewInt(int64(len(roomCodeChars))))
		if err != nil {
			code[i] = roomCodeChars[rand.IntN(len(roomCodeChars))]
			continue
		}
		code[i] = roomCodeChars[n.Int64()]
	}
	return string(code)
}
