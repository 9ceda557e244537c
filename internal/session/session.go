// Пакет session хранит эфемерное состояние посетителя, в первую очередь
// отметки о снятых парольных замках.
package session

import "sync"

// Session is the per-visitor key/value capability handed to the resolver.
// Values never cross session boundaries.
type Session interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// Store keeps session values in process memory. Entries live as long as
// the process; the signed cookie that names a session expires on its own.
type Store struct {
	mux    *sync.Mutex
	values map[string]map[string]string
}

func NewStore() *Store {
	return &Store{
		mux:    &sync.Mutex{},
		values: make(map[string]map[string]string),
	}
}

// Session returns a view bound to one session ID.
func (s *Store) Session(id string) Session {
	return &boundSession{store: s, id: id}
}

type boundSession struct {
	store *Store
	id    string
}

func (b *boundSession) Get(key string) (string, bool) {
	b.store.mux.Lock()
	defer b.store.mux.Unlock()
	values, ok := b.store.values[b.id]
	if !ok {
		return "", false
	}
	value, ok := values[key]
	return value, ok
}

func (b *boundSession) Set(key, value string) {
	b.store.mux.Lock()
	defer b.store.mux.Unlock()
	values, ok := b.store.values[b.id]
	if !ok {
		values = make(map[string]string)
		b.store.values[b.id] = values
	}
	values[key] = value
}
