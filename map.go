package dstar

// Hashable 自定义哈希接口
type Hashable interface {
	Hash() uint64
	Equals(other Hashable) bool
}

// HashMap is a chained hash table keyed by Hashable. It is owned by a
// single determinization run and is not safe for concurrent use.
type HashMap[T any] struct {
	buckets     []*entry[T]
	size        int
	mask        uint64
	emptyValue  T
	loadFactory float64
}

type entry[T any] struct {
	key   Hashable
	hash  uint64
	value T
	next  *entry[T]
}

type optionsHashMap struct {
	capacity    int     // 默认1
	loadFactory float64 // 负载因子，默认0.75
}

func newOptionsHashMap(opts ...OptionsHashMap) *optionsHashMap {
	options := &optionsHashMap{
		capacity:    1,
		loadFactory: 0.75,
	}

	for _, opt := range opts {
		opt(options)
	}

	realCap := 1
	for realCap < options.capacity {
		realCap <<= 1
	}
	options.capacity = realCap

	return options
}

type OptionsHashMap func(hashMap *optionsHashMap)

func WithCapacity(capacity int) OptionsHashMap {
	return func(hashMap *optionsHashMap) {
		hashMap.capacity = capacity
	}
}

// NewHashMap 创建哈希表，初始容量自动调整为2的幂
func NewHashMap[T any](options ...OptionsHashMap) *HashMap[T] {
	opt := newOptionsHashMap(options...)

	return &HashMap[T]{
		buckets:     make([]*entry[T], opt.capacity),
		mask:        uint64(opt.capacity - 1),
		loadFactory: opt.loadFactory,
	}
}

// Set 插入键值对
func (m *HashMap[T]) Set(key Hashable, value T) {
	hash := key.Hash()
	index := hash & m.mask

	for e := m.buckets[index]; e != nil; e = e.next {
		if e.hash == hash && e.key.Equals(key) {
			e.value = value
			return
		}
	}

	// 头插法添加新条目
	m.buckets[index] = &entry[T]{
		key:   key,
		hash:  hash,
		value: value,
		next:  m.buckets[index],
	}
	m.size++

	if float64(m.size)/float64(len(m.buckets)) > m.loadFactory {
		m.resize()
	}
}

// Get 获取值
func (m *HashMap[T]) Get(key Hashable) (T, bool) {
	hash := key.Hash()
	index := hash & m.mask

	for e := m.buckets[index]; e != nil; e = e.next {
		if e.hash == hash && e.key.Equals(key) {
			return e.value, true
		}
	}
	return m.emptyValue, false
}

// 扩容哈希表，缓存的哈希值避免重新计算
func (m *HashMap[T]) resize() {
	newCap := len(m.buckets) << 1
	newBuckets := make([]*entry[T], newCap)
	newMask := uint64(newCap - 1)

	for _, head := range m.buckets {
		for e := head; e != nil; {
			next := e.next
			newIndex := e.hash & newMask
			e.next = newBuckets[newIndex]
			newBuckets[newIndex] = e
			e = next
		}
	}

	m.buckets = newBuckets
	m.mask = newMask
}

// Size 获取元素数量
func (m *HashMap[T]) Size() int {
	return m.size
}
