package sample

const maxItems = 16

// Item is a stored value.
type Item struct {
	Key   string
	Value string
}

type Store interface {
	Get(key string) (Item, bool)
}

type memStore struct {
	items map[string]Item
}

func (m *memStore) Get(key string) (Item, bool) {
	it, ok := m.items[key]
	return it, ok
}

func NewStore() Store {
	return &memStore{items: make(map[string]Item)}
}
