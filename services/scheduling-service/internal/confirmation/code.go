package confirmation

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
)

// Codes use an alphabet without 0/O/1/I so they survive being read over the
// phone. 8 chars over 32 symbols gives 2^40 combinations; collisions are
// possible but rare, so the generator re-checks the store and retries.
const (
	alphabet   = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	CodeLength = 8
	maxRetries = 5
)

var ErrExhausted = errors.New("confirmation code space exhausted after retries")

// ExistsFunc reports whether a code is already assigned to a reservation.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

type Generator struct {
	exists ExistsFunc
}

func NewGenerator(exists ExistsFunc) *Generator {
	return &Generator{exists: exists}
}

// Next returns a code that was unused at check time. The caller must still
// hold a UNIQUE constraint on the column; losing that race is treated as a
// collision by the caller and retried through Next again.
func (g *Generator) Next(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		code, err := randomCode()
		if err != nil {
			return "", err
		}
		taken, err := g.exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrExhausted
}

func randomCode() (string, error) {
	var raw [CodeLength]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	out := make([]byte, CodeLength)
	for i, b := range raw {
		out[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(out), nil
}
