package ratelimits

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	// How many keys a bucket may contain when created
	BUCKET_INITIAL_FILL = 8

	// The maximum amount of keys a user may possess
	BUCKET_UPPER_BOUND = 16

	// How often new keys drip into the buckets
	DROP_INTERVAL = 10 * time.Second

	// How many keys may drop at a time
	DROP_SIZE = 1
)

var ErrNoKeysLeft = errors.New("no keys left")

// Container struct to lock the bucket map
type BucketContainer struct {
	sync.RWMutex

	// Maps discord ids to key-counts
	buckets map[string]int8
}

func NewBucketContainer() *BucketContainer {
	return &BucketContainer{buckets: make(map[string]int8)}
}

// Start refills the buckets every DROP_INTERVAL until ctx is done
func (b *BucketContainer) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(DROP_INTERVAL)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				b.Refill()
			}
		}
	}()
}

// Refill runs one refill round over all buckets
func (b *BucketContainer) Refill() {
	b.Lock()
	defer b.Unlock()

	for user, keys := range b.buckets {
		// Chill zone
		if keys == -1 {
			b.buckets[user]++
			continue
		}

		// Chill zone exit
		if keys == 0 {
			b.buckets[user] = BUCKET_INITIAL_FILL
			continue
		}

		// More free keys for nice users :3
		if keys < BUCKET_UPPER_BOUND {
			b.buckets[user] += DROP_SIZE
			continue
		}
	}
}

// Drains $amount from $user if he has enough keys left
func (b *BucketContainer) Drain(amount int8, user string) error {
	b.Lock()
	defer b.Unlock()

	keys, ok := b.buckets[user]
	if !ok {
		keys = BUCKET_INITIAL_FILL
	}

	if amount > keys {
		b.buckets[user] = keys
		return ErrNoKeysLeft
	}

	b.buckets[user] = keys - amount
	return nil
}

// Check if the user still has keys
func (b *BucketContainer) HasKeys(user string) bool {
	b.RLock()
	defer b.RUnlock()

	keys, ok := b.buckets[user]
	return !ok || keys > 0
}

func (b *BucketContainer) Get(user string) int8 {
	b.RLock()
	defer b.RUnlock()

	keys, ok := b.buckets[user]
	if !ok {
		return BUCKET_INITIAL_FILL
	}
	return keys
}

func (b *BucketContainer) Set(user string, value int8) {
	b.Lock()
	b.buckets[user] = value
	b.Unlock()
}
