// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"git.mills.io/prologic/bitcask"
)

const (
	maxKeySize   = 256
	maxValueSize = 1024 * 1024
)

type bitcaskStore struct {
	db  *bitcask.Bitcask
	mut sync.RWMutex
}

func newBitcaskStore(path string) (*bitcaskStore, error) {
	if path == "" {
		return nil, fmt.Errorf("invalid data source: should not be empty")
	}

	db, err := bitcask.Open(path,
		bitcask.WithDirFileModeBeforeUmask(0700),
		bitcask.WithFileFileModeBeforeUmask(0600),
		bitcask.WithMaxKeySize(maxKeySize),
		bitcask.WithMaxValueSize(maxValueSize),
		bitcask.WithSync(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open bitcask db: %w", err)
	}

	return &bitcaskStore{db: db}, nil
}

func (s *bitcaskStore) Set(key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	if len(value) > maxValueSize {
		return fmt.Errorf("failed to set %q: %w", key, ErrValueTooBig)
	}

	s.mut.Lock()
	defer s.mut.Unlock()
	if err := s.db.Put([]byte(key), value); err != nil {
		return fmt.Errorf("failed to set %q: %w", key, err)
	}

	return nil
}

func (s *bitcaskStore) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	s.mut.RLock()
	defer s.mut.RUnlock()
	return s.get(key)
}

func (s *bitcaskStore) get(key string) ([]byte, error) {
	val, err := s.db.Get([]byte(key))
	if errors.Is(err, bitcask.ErrKeyNotFound) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get %q: %w", key, err)
	}
	return val, nil
}

func (s *bitcaskStore) Delete(key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	s.mut.Lock()
	defer s.mut.Unlock()
	if err := s.db.Delete([]byte(key)); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}

	return nil
}

func (s *bitcaskStore) Scan(prefix string, fn func(key string, value []byte) error) error {
	s.mut.RLock()
	defer s.mut.RUnlock()

	// Values are read after the scan since bitcask holds its own lock while
	// scanning.
	var keys []string
	err := s.db.Scan([]byte(prefix), func(key []byte) error {
		keys = append(keys, string(key))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan %q: %w", prefix, err)
	}
	sort.Strings(keys)

	for _, key := range keys {
		val, err := s.get(key)
		if errors.Is(err, ErrNotFound) {
			continue
		} else if err != nil {
			return err
		}
		if err := fn(key, val); err != nil {
			return err
		}
	}

	return nil
}

func (s *bitcaskStore) Close() error {
	s.mut.Lock()
	defer s.mut.Unlock()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	return nil
}
