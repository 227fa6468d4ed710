package obs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSQLOperation(t *testing.T) {
	require.Equal(t, "SELECT", sqlOperation("  select id from variants"))
	require.Equal(t, "UPDATE", sqlOperation("WITH x AS (SELECT 1) UPDATE variants SET stock = 0"))
	require.Equal(t, "", sqlOperation("   "))
}

func TestTruncateSQL(t *testing.T) {
	long := strings.Repeat("a", 400)
	require.Len(t, truncateSQL(long), 303)
	require.Equal(t, "select 1", truncateSQL(" select 1 "))
}
