package feature

// Cursor walks a query result once.
type Cursor interface {
	HasMore() bool
	Next() *Feature
}

// SliceCursor serves features from a slice in order.
type SliceCursor struct {
	features []*Feature
	pos      int
}

// NewSliceCursor wraps features without copying them.
func NewSliceCursor(features ...*Feature) *SliceCursor {
	return &SliceCursor{features: features}
}

// HasMore implements Cursor.
func (c *SliceCursor) HasMore() bool {
	return c.pos < len(c.features)
}

// Next implements Cursor. It returns nil once exhausted.
func (c *SliceCursor) Next() *Feature {
	if !c.HasMore() {
		return nil
	}
	f := c.features[c.pos]
	c.pos++
	return f
}

// Len returns the total number of features, consumed or not.
func (c *SliceCursor) Len() int {
	return len(c.features)
}
