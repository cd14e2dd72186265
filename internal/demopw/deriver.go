// Package demopw derives the display-only demo password shown by the demo
// lookup variant. The token is a deterministic function of the lookup
// fields and is not a credential.
package demopw

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"strings"

	"github.com/shrimpsizemoose/haksa/internal/models"
)

const (
	DefaultTag       = "DEMO"
	DefaultSeparator = "|"
	DefaultPrefix    = "PW-"
	DefaultLength    = 10
)

type Deriver struct {
	Tag       string
	Separator string
	Prefix    string
	Length    int
	// NewHash builds the digest. A nil NewHash selects the plain
	// birth+phone fallback.
	NewHash func() hash.Hash
}

func New(tag, separator, prefix string, length int) *Deriver {
	d := &Deriver{
		Tag:       tag,
		Separator: separator,
		Prefix:    prefix,
		Length:    length,
		NewHash:   sha256.New,
	}
	if d.Tag == "" {
		d.Tag = DefaultTag
	}
	if d.Separator == "" {
		d.Separator = DefaultSeparator
	}
	if d.Length <= 0 {
		d.Length = DefaultLength
	}
	return d
}

func (d *Deriver) Seed(q models.Query) string {
	return strings.Join([]string{d.Tag, q.StudentNo, q.Name, q.Birth, q.PhoneLast4}, d.Separator)
}

// Derive returns the display token for q, or the context error if ctx is
// done before the digest is ready.
func (d *Deriver) Derive(ctx context.Context, q models.Query) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if d.NewHash == nil {
		return q.Birth + q.PhoneLast4, nil
	}

	done := make(chan string, 1)
	go func() {
		h := d.NewHash()
		h.Write([]byte(d.Seed(q)))
		sum := strings.ToUpper(hex.EncodeToString(h.Sum(nil)))
		if d.Length < len(sum) {
			sum = sum[:d.Length]
		}
		done <- d.Prefix + sum
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case token := <-done:
		return token, nil
	}
}
