package demopw

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/haksa/internal/models"
)

var hong = models.Query{StudentNo: "23015", Name: "홍길동", Birth: "080315", PhoneLast4: "1234"}

func TestSeed(t *testing.T) {
	d := New("", "", "", 0)
	assert.Equal(t, "DEMO|23015|홍길동|080315|1234", d.Seed(hong))

	d = New("T", ":", "", 0)
	assert.Equal(t, "T:23015:홍길동:080315:1234", d.Seed(hong))
}

func TestDerive(t *testing.T) {
	ctx := context.Background()
	d := New("", "", DefaultPrefix, DefaultLength)

	sum := sha256.Sum256([]byte("DEMO|23015|홍길동|080315|1234"))
	want := "PW-" + strings.ToUpper(hex.EncodeToString(sum[:]))[:10]

	got, err := d.Derive(ctx, hong)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	again, err := d.Derive(ctx, hong)
	require.NoError(t, err)
	assert.Equal(t, got, again, "derivation must be deterministic")

	other := hong
	other.PhoneLast4 = "1235"
	different, err := d.Derive(ctx, other)
	require.NoError(t, err)
	assert.NotEqual(t, got, different)
}

func TestDeriveLengthLongerThanDigest(t *testing.T) {
	d := New("", "", "", 500)
	got, err := d.Derive(context.Background(), hong)
	require.NoError(t, err)
	assert.Len(t, got, 64)
	assert.Equal(t, strings.ToUpper(got), got)
}

func TestDeriveFallback(t *testing.T) {
	d := New("", "", "PW-", 10)
	d.NewHash = nil

	got, err := d.Derive(context.Background(), hong)
	require.NoError(t, err)
	assert.Equal(t, "0803151234", got)
}

func TestDeriveCancelled(t *testing.T) {
	d := New("", "", "", 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Derive(ctx, hong)
	assert.ErrorIs(t, err, context.Canceled)
}
