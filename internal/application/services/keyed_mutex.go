package services

import "sync"

// KeyedMutex serializes work per entity id. Validation and activation share
// one instance so two concurrent scans cannot both consume the last
// remaining use of a ticket.
type KeyedMutex struct {
	locks sync.Map
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{}
}

func (k *KeyedMutex) Lock(key string) func() {
	v, _ := k.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
