// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package store

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (Store, string) {
	t.Helper()

	dbDir, err := os.MkdirTemp("", "db")
	require.NoError(t, err)
	t.Cleanup(func() {
		os.RemoveAll(dbDir)
	})

	st, err := New(dbDir)
	require.NoError(t, err)
	require.NotNil(t, st)

	return st, dbDir
}

func TestNew(t *testing.T) {
	t.Run("empty data source", func(t *testing.T) {
		st, err := New("")
		require.EqualError(t, err, "invalid data source: should not be empty")
		require.Nil(t, st)
	})

	t.Run("valid", func(t *testing.T) {
		st, _ := setupStore(t)
		require.NoError(t, st.Close())
	})
}

func TestGetSet(t *testing.T) {
	st, dbDir := setupStore(t)

	t.Run("missing key", func(t *testing.T) {
		val, err := st.Get("call:missing")
		require.ErrorIs(t, err, ErrNotFound)
		require.Nil(t, val)
	})

	t.Run("empty key", func(t *testing.T) {
		require.ErrorIs(t, st.Set("", []byte("roster")), ErrEmptyKey)
		_, err := st.Get("")
		require.ErrorIs(t, err, ErrEmptyKey)
	})

	t.Run("value too big", func(t *testing.T) {
		err := st.Set("call:big", make([]byte, maxValueSize+1))
		require.ErrorIs(t, err, ErrValueTooBig)
	})

	t.Run("set and update", func(t *testing.T) {
		require.NoError(t, st.Set("call:a", []byte{0x90}))
		val, err := st.Get("call:a")
		require.NoError(t, err)
		require.Equal(t, []byte{0x90}, val)

		require.NoError(t, st.Set("call:a", []byte{0x91, 0x01}))
		val, err = st.Get("call:a")
		require.NoError(t, err)
		require.Equal(t, []byte{0x91, 0x01}, val)
	})

	t.Run("concurrent writers", func(t *testing.T) {
		var wg sync.WaitGroup
		errs := make([]error, 10)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = st.Set(fmt.Sprintf("call:c%d", i), []byte{byte(i)})
			}(i)
		}
		wg.Wait()
		for _, err := range errs {
			require.NoError(t, err)
		}

		for i := 0; i < 10; i++ {
			val, err := st.Get(fmt.Sprintf("call:c%d", i))
			require.NoError(t, err)
			require.Equal(t, []byte{byte(i)}, val)
		}
	})

	t.Run("reopen", func(t *testing.T) {
		require.NoError(t, st.Close())

		st, err := New(dbDir)
		require.NoError(t, err)
		defer st.Close()

		val, err := st.Get("call:a")
		require.NoError(t, err)
		require.Equal(t, []byte{0x91, 0x01}, val)
	})
}

func TestDelete(t *testing.T) {
	st, _ := setupStore(t)
	defer st.Close()

	t.Run("empty key", func(t *testing.T) {
		require.ErrorIs(t, st.Delete(""), ErrEmptyKey)
	})

	t.Run("missing key", func(t *testing.T) {
		require.NoError(t, st.Delete("call:missing"))
	})

	t.Run("existing key", func(t *testing.T) {
		require.NoError(t, st.Set("call:a", []byte("roster")))
		require.NoError(t, st.Delete("call:a"))

		_, err := st.Get("call:a")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestScan(t *testing.T) {
	st, _ := setupStore(t)
	defer st.Close()

	collect := func(prefix string) map[string]string {
		records := map[string]string{}
		var keys []string
		err := st.Scan(prefix, func(key string, value []byte) error {
			keys = append(keys, key)
			records[key] = string(value)
			return nil
		})
		require.NoError(t, err)
		require.IsIncreasing(t, keys)
		return records
	}

	t.Run("empty store", func(t *testing.T) {
		require.Empty(t, collect("call:"))
	})

	t.Run("prefix", func(t *testing.T) {
		require.NoError(t, st.Set("call:b", []byte("b")))
		require.NoError(t, st.Set("call:a", []byte("a")))
		require.NoError(t, st.Set("other:c", []byte("c")))

		require.Equal(t, map[string]string{"call:a": "a", "call:b": "b"}, collect("call:"))
	})

	t.Run("deleted keys", func(t *testing.T) {
		require.NoError(t, st.Delete("call:a"))
		require.Equal(t, map[string]string{"call:b": "b"}, collect("call:"))
	})

	t.Run("callback error", func(t *testing.T) {
		require.NoError(t, st.Set("call:c", []byte("c")))
		stop := errors.New("stop")
		var calls int
		err := st.Scan("call:", func(string, []byte) error {
			calls++
			return stop
		})
		require.ErrorIs(t, err, stop)
		require.Equal(t, 1, calls)
	})
}
