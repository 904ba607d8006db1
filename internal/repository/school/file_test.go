package school

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFileRepository_NotFound verifies Load returns ErrNotFound for a missing file or tenant.
func TestFileRepository_NotFound(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "missing.yaml"))

	s, err := repo.Load(context.Background(), "default")
	require.ErrorIs(t, err, ErrNotFound)
	require.Nil(t, s)

	all, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, all)
}

// TestFileRepository_SaveLoad_Roundtrip ensures Save followed by Load returns equal metadata.
func TestFileRepository_SaveLoad_Roundtrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	file := filepath.Join(t.TempDir(), "schools.yaml")
	repo := NewFileRepository(file)

	modelo := &School{
		Name:     "Escola Modelo",
		Address:  "Av. Principal, 456 - Centro",
		City:     "Brasília - DF",
		Phone:    "(61) 99999-0000",
		Director: "Maria Silva Oliveira",
	}
	other := &School{Name: "Escola Norte"}

	require.NoError(t, repo.Save(ctx, "default", modelo))
	require.NoError(t, repo.Save(ctx, "norte", other))

	got, err := repo.Load(ctx, "default")
	require.NoError(t, err)
	require.Equal(t, modelo, got)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "Escola Norte", all["norte"].Name)

	_, err = os.Stat(file)
	require.NoError(t, err)

	require.Error(t, repo.Save(ctx, "x", nil))
}

// TestFileRepository_CorruptFile surfaces decode errors.
func TestFileRepository_CorruptFile(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "schools.yaml")
	require.NoError(t, os.WriteFile(file, []byte("[unclosed"), 0o600))

	_, err := NewFileRepository(file).Load(context.Background(), "default")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}
