package booking

import (
	"sync"

	"github.com/google/uuid"
)

const lockShards = 64

// LockTable serializes mutations per booking without a global lock.
// Bookings hash onto a fixed set of shards; two bookings on the same
// shard contend but correctness only needs per-booking exclusion.
type LockTable struct {
	shards [lockShards]sync.Mutex
}

// NewLockTable creates a lock table
func NewLockTable() *LockTable {
	return &LockTable{}
}

// Lock acquires the mutation lock for a booking
func (t *LockTable) Lock(id uuid.UUID) {
	t.shards[shardFor(id)].Lock()
}

// Unlock releases the mutation lock for a booking
func (t *LockTable) Unlock(id uuid.UUID) {
	t.shards[shardFor(id)].Unlock()
}

func shardFor(id uuid.UUID) int {
	// uuid bytes are uniformly distributed; the first two are enough
	return int(uint16(id[0])<<8|uint16(id[1])) % lockShards
}
