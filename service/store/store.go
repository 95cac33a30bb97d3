// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package store

import (
	"errors"
)

var (
	ErrNotFound    = errors.New("store: key not found")
	ErrEmptyKey    = errors.New("store: empty key")
	ErrValueTooBig = errors.New("store: value too big")
)

// Store persists binary records under string keys. Records sharing a key
// prefix can be iterated with Scan.
type Store interface {
	Set(key string, value []byte) error
	Get(key string) ([]byte, error)
	Delete(key string) error
	// Scan calls fn for every record whose key starts with prefix, in
	// ascending key order. An error returned by fn stops the scan.
	Scan(prefix string, fn func(key string, value []byte) error) error
	Close() error
}

func New(dataSource string) (Store, error) {
	return newBitcaskStore(dataSource)
}
