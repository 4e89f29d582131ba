package memory

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppraisalStore_GetOnUnknownRequestIsNotFound(t *testing.T) {
	s := NewAppraisalStore()
	_, found, err := s.Get(context.Background(), "req-1")
	require.NoError(t, err)
	require.False(t, found)
}

func TestAppraisalStore_SetThenGet(t *testing.T) {
	ctx := context.Background()
	s := NewAppraisalStore()
	require.NoError(t, s.Set(ctx, "req-1", big.NewInt(42)))

	v, found, err := s.Get(ctx, "req-1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, big.NewInt(42), v)
}
