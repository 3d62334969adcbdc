package service

import "sync"

// keyedLock сериализует циклы "изменение + перечитывание" для одного id.
// Записи удаляются, когда их больше никто не держит.
type keyedLock struct {
	mtx   sync.Mutex
	locks map[int64]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedLock() *keyedLock {
	return &keyedLock{locks: make(map[int64]*lockEntry)}
}

func (k *keyedLock) Lock(id int64) (unlock func()) {
	k.mtx.Lock()
	entry, ok := k.locks[id]
	if !ok {
		entry = &lockEntry{}
		k.locks[id] = entry
	}
	entry.refs++
	k.mtx.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		k.mtx.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, id)
		}
		k.mtx.Unlock()
	}
}

func (k *keyedLock) size() int {
	k.mtx.Lock()
	defer k.mtx.Unlock()
	return len(k.locks)
}
