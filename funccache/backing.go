package funccache

import (
	"github.com/sarchlab/akita/v4/mem/mem"
)

// StorageBacking wraps an Akita storage as a BackingStore.
type StorageBacking struct {
	storage *mem.Storage
}

// NewStorageBacking creates a StorageBacking adapter.
func NewStorageBacking(storage *mem.Storage) *StorageBacking {
	return &StorageBacking{storage: storage}
}

// Read fetches data from the backing storage.
func (b *StorageBacking) Read(addr uint64, size int) []byte {
	data, err := b.storage.Read(addr, uint64(size))
	if err != nil {
		panic(err)
	}
	return data
}

// Write stores data to the backing storage.
func (b *StorageBacking) Write(addr uint64, data []byte) {
	if err := b.storage.Write(addr, data); err != nil {
		panic(err)
	}
}

// Storage returns the wrapped storage.
func (b *StorageBacking) Storage() *mem.Storage {
	return b.storage
}
