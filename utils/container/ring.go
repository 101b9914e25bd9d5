package container

// Ring 定长先进先出队列
// 功能：保存最近的cap个元素，满后追加新元素时淘汰最旧的元素
// 说明：Values按插入顺序（旧到新）返回副本，调用方修改返回值不影响内部数据
type Ring[T any] struct {
	data  []T // 环形存储
	start int // 最旧元素的位置
	size  int // 当前元素个数
}

// NewRing 创建容量为cap的定长队列
func NewRing[T any](cap int) *Ring[T] {
	if cap <= 0 {
		panic("container: ring capacity must be positive")
	}
	return &Ring[T]{data: make([]T, cap)}
}

// Len 当前元素个数
func (r *Ring[T]) Len() int {
	return r.size
}

// Cap 容量
func (r *Ring[T]) Cap() int {
	return len(r.data)
}

// Push 追加元素
// 功能：在队尾追加元素，若已满则覆盖队首元素
// 返回：被淘汰的元素与是否发生淘汰
func (r *Ring[T]) Push(v T) (evicted T, ok bool) {
	if r.size < len(r.data) {
		r.data[(r.start+r.size)%len(r.data)] = v
		r.size++
		return
	}
	evicted, ok = r.data[r.start], true
	r.data[r.start] = v
	r.start = (r.start + 1) % len(r.data)
	return
}

// Last 最新的元素
func (r *Ring[T]) Last() (v T, ok bool) {
	if r.size == 0 {
		return
	}
	return r.data[(r.start+r.size-1)%len(r.data)], true
}

// Values 按旧到新的顺序返回所有元素
func (r *Ring[T]) Values() []T {
	out := make([]T, r.size)
	for i := range r.size {
		out[i] = r.data[(r.start+i)%len(r.data)]
	}
	return out
}
