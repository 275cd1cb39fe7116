package dbutil

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestFinalizeRebindsPlaceholders(t *testing.T) {
	query, args := Finalize("SELECT id FROM documents WHERE source_url=? AND source_type=?",
		[]interface{}{"url", "repository"})
	require.Equal(t, "SELECT id FROM documents WHERE source_url=$1 AND source_type=$2", query)
	require.Equal(t, []interface{}{"url", "repository"}, args)
}

func TestFinalizeRewritesLimit(t *testing.T) {
	// gendry emits mysql-style LIMIT offset,count
	query, args := Finalize("SELECT id FROM documents WHERE source_type=? ORDER BY updated_at DESC LIMIT ?,?",
		[]interface{}{"repository", uint(0), uint(10)})
	require.Equal(t,
		"SELECT id FROM documents WHERE source_type=$1 ORDER BY updated_at DESC LIMIT $2 OFFSET $3",
		query)
	require.Equal(t, []interface{}{"repository", uint(10), uint(0)}, args)
}

func TestIsConflict(t *testing.T) {
	require.True(t, IsConflict(&pq.Error{Code: "23505"}))
	require.False(t, IsConflict(&pq.Error{Code: "23503"}))
	require.False(t, IsConflict(errors.New("plain")))
	require.False(t, IsConflict(nil))
}
