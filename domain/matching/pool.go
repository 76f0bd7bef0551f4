package matching

import "container/heap"

// pool holds unmatched students that may still propose.
// The next proposer is the minimum under less.
type pool struct {
	items []StudentID
	less  func(a, b StudentID) bool
}

func newPool(less func(a, b StudentID) bool) *pool {
	return &pool{less: less}
}

func (p *pool) Len() int           { return len(p.items) }
func (p *pool) Less(i, j int) bool { return p.less(p.items[i], p.items[j]) }
func (p *pool) Swap(i, j int)      { p.items[i], p.items[j] = p.items[j], p.items[i] }

func (p *pool) Push(x any) { p.items = append(p.items, x.(StudentID)) }

func (p *pool) Pop() any {
	last := len(p.items) - 1
	s := p.items[last]
	p.items = p.items[:last]
	return s
}

func (p *pool) add(s StudentID) { heap.Push(p, s) }

func (p *pool) next() StudentID { return heap.Pop(p).(StudentID) }
