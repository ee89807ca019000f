package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mheg/internal/ir"
)

func TestPersistent_EmptyStore(t *testing.T) {
	s := createTestStore(t)

	records, err := s.LoadPersistent(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestPersistent_SaveAndLoad(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	ref := ir.ObjectRef(ir.ObjectReference{Group: "~//a", Number: 3})
	require.NoError(t, s.SavePersistent(ctx, ir.PersistentRecord{
		Filename: "scores",
		Values:   []ir.Value{ir.Int(42), ir.OctetString("ab"), ir.Bool(true), ref, ir.ContentRef("pic.png")},
	}))
	require.NoError(t, s.SavePersistent(ctx, ir.PersistentRecord{Filename: "empty"}))

	records, err := s.LoadPersistent(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "scores", records[0].Filename)
	assert.Equal(t, []ir.Value{ir.Int(42), ir.OctetString("ab"), ir.Bool(true), ref, ir.ContentRef("pic.png")}, records[0].Values)
	assert.Equal(t, "empty", records[1].Filename)
	assert.Empty(t, records[1].Values)
}

func TestPersistent_OverwriteMovesToEnd(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SavePersistent(ctx, ir.PersistentRecord{Filename: "a", Values: []ir.Value{ir.Int(1)}}))
	require.NoError(t, s.SavePersistent(ctx, ir.PersistentRecord{Filename: "b", Values: []ir.Value{ir.Int(2)}}))
	require.NoError(t, s.SavePersistent(ctx, ir.PersistentRecord{Filename: "a", Values: []ir.Value{ir.Int(3)}}))

	records, err := s.LoadPersistent(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "b", records[0].Filename)
	assert.Equal(t, "a", records[1].Filename)
	assert.Equal(t, []ir.Value{ir.Int(3)}, records[1].Values)
}

func TestPersistent_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.SavePersistent(ctx, ir.PersistentRecord{Filename: "f", Values: []ir.Value{ir.Bool(false)}}))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	records, err := s2.LoadPersistent(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []ir.Value{ir.Bool(false)}, records[0].Values)
}
