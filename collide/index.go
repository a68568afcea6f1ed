package collide

import (
	"github.com/dhconnelly/rtreego"
)

const (
	treeMinChildren = 2
	treeMaxChildren = 16
)

// obstacle adapts a Rect to rtreego.Spatial.
type obstacle struct {
	rect Rect
	bb   rtreego.Rect
}

func (o *obstacle) Bounds() rtreego.Rect { return o.bb }

// Index is an Obstacles implementation backed by an R-tree. The tree only
// narrows the candidates; the final answer always comes from Intersects so
// Index and List agree on every query.
type Index struct {
	list List
	tree *rtreego.Rtree
	flat List // rectangles rtreego cannot hold (non-positive size)
}

// NewIndex builds an index over rects. The slice is copied.
func NewIndex(rects []Rect) *Index {
	idx := &Index{
		list: append(List(nil), rects...),
		tree: rtreego.NewTree(2, treeMinChildren, treeMaxChildren),
	}
	for _, r := range rects {
		bb, ok := toRTree(r)
		if !ok {
			idx.flat = append(idx.flat, r)
			continue
		}
		idx.tree.Insert(&obstacle{rect: r, bb: bb})
	}
	return idx
}

// Rects returns the obstacles in insertion order.
func (idx *Index) Rects() List {
	if idx == nil {
		return nil
	}
	return idx.list
}

// Len returns the number of obstacles.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.list)
}

// Hits implements Obstacles.
func (idx *Index) Hits(r Rect) bool {
	if idx == nil || len(idx.list) == 0 {
		return false
	}
	if idx.flat.Hits(r) {
		return true
	}
	bb, ok := toRTree(r)
	if !ok {
		// Degenerate query; the tree cannot search with it.
		return idx.list.Hits(r)
	}
	for _, s := range idx.tree.SearchIntersect(bb) {
		if o, ok := s.(*obstacle); ok && Intersects(r, o.rect) {
			return true
		}
	}
	return false
}

func toRTree(r Rect) (rtreego.Rect, bool) {
	if r.W <= 0 || r.H <= 0 {
		return rtreego.Rect{}, false
	}
	bb, err := rtreego.NewRect(rtreego.Point{r.X, r.Y}, []float64{r.W, r.H})
	if err != nil {
		return rtreego.Rect{}, false
	}
	return bb, true
}
