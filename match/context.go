package match

// Context is the per-arm scratch area for transform-produced temporaries.
// Values emplaced here stay alive for the remainder of one arm's evaluation
// so binders may refer to them; a fresh Context is created for every arm.
type Context struct {
	values []interface{}
}

func newContext() *Context {
	return &Context{}
}

func (c *Context) emplace(v interface{}) {
	c.values = append(c.values, v)
}

func (c *Context) back() interface{} {
	return c.values[len(c.values)-1]
}
