package idx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/jwtauth/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestNewAndParse(t *testing.T) {
	id := idx.New()
	require.False(t, id.IsZero())

	parsed, err := idx.Parse(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)

	_, err = idx.Parse("not-a-ulid")
	require.ErrorIs(t, err, idx.ErrInvalid)
}

func TestMonotonicWithinMillisecond(t *testing.T) {
	at := time.Unix(1_700_000_000, 0).UTC()
	a := idx.NewAt(at)
	b := idx.NewAt(at)

	require.Less(t, a.String(), b.String())
}

func TestTimeExtraction(t *testing.T) {
	tm := time.Unix(1700000000, 0).UTC()
	require.WithinDuration(t, tm, idx.NewAt(tm).Time(), time.Millisecond)
	require.True(t, idx.ID("forwarded-id").Time().IsZero())
}

func TestFromHeader(t *testing.T) {
	require.Equal(t, idx.ID("abc-123"), idx.FromHeader("abc-123"))

	for _, bad := range []string{"", "has space", "line\nbreak", strings.Repeat("x", 129)} {
		id := idx.FromHeader(bad)
		require.NotEqual(t, bad, id.String())
		_, err := idx.Parse(id.String())
		require.NoError(t, err, "replacement should be a fresh ULID")
	}
}
