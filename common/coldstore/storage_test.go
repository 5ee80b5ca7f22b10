package coldstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"event-platform/common/breakerx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStorage struct {
	err  error
	puts []string
}

func (s *stubStorage) Put(_ context.Context, key string, _ []byte) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.puts = append(s.puts, key)
	return "stub://" + key, nil
}

func TestLocalStoragePut(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir)

	loc, err := s.Put(context.Background(), "audit/event-1/1-3.jsonl", []byte("a\nb\n"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(loc, "file://"))

	data, err := os.ReadFile(filepath.Join(dir, "audit", "event-1", "1-3.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", string(data))

	// 同 key 覆盖
	_, err = s.Put(context.Background(), "audit/event-1/1-3.jsonl", []byte("c\n"))
	require.NoError(t, err)
	data, err = os.ReadFile(filepath.Join(dir, "audit", "event-1", "1-3.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, "c\n", string(data))

	entries, err := os.ReadDir(filepath.Join(dir, "audit", "event-1"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFallbackStorage(t *testing.T) {
	t.Run("primary ok", func(t *testing.T) {
		primary, fallback := &stubStorage{}, &stubStorage{}
		loc, err := NewFallbackStorage(primary, fallback, nil).Put(context.Background(), "k", nil)
		require.NoError(t, err)
		assert.Equal(t, "stub://k", loc)
		assert.Equal(t, []string{"k"}, primary.puts)
		assert.Empty(t, fallback.puts)
	})

	t.Run("primary fails", func(t *testing.T) {
		primary, fallback := &stubStorage{err: errors.New("503")}, &stubStorage{}
		loc, err := NewFallbackStorage(primary, fallback, nil).Put(context.Background(), "k", nil)
		require.NoError(t, err)
		assert.Equal(t, "stub://k", loc)
		assert.Equal(t, []string{"k"}, fallback.puts)
	})

	t.Run("both fail", func(t *testing.T) {
		primary, fallback := &stubStorage{err: errors.New("503")}, &stubStorage{err: errors.New("disk full")}
		_, err := NewFallbackStorage(primary, fallback, nil).Put(context.Background(), "k", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
	})
}

func TestNewStorageWithoutQiniu(t *testing.T) {
	s := NewStorage(Config{LocalDir: t.TempDir()})
	_, ok := s.(*LocalStorage)
	assert.True(t, ok)
}

func TestFallbackStorageBreakerSkipsPrimary(t *testing.T) {
	primary, fallback := &stubStorage{err: errors.New("503")}, &stubStorage{}
	brk := breakerx.New(breakerx.Config{Name: "test", MinRequests: 2, ErrorRate: 0.5, OpenFor: time.Minute})
	s := NewFallbackStorage(primary, fallback, brk)

	for i := 0; i < 2; i++ {
		_, err := s.Put(context.Background(), "k", nil)
		require.NoError(t, err)
	}
	require.True(t, brk.Open())

	// 熔断期间主存储恢复也不会被调用
	primary.err = nil
	_, err := s.Put(context.Background(), "k2", nil)
	require.NoError(t, err)
	assert.Empty(t, primary.puts)
	assert.Equal(t, []string{"k", "k", "k2"}, fallback.puts)
}
