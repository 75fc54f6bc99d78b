package billing

// Line is one cart entry referencing a product by ID.
type Line struct {
	ProductID string
	Quantity  int
}

// Cart is a transient order under assembly. CustomerID may be empty for
// guest sales. Carts are not persisted; checkout is the commit point.
type Cart struct {
	CustomerID string
	Lines      []Line
}

// Add appends a line, merging quantities when the product is already in
// the cart.
func (c *Cart) Add(productID string, qty int) {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Quantity += qty
			return
		}
	}
	c.Lines = append(c.Lines, Line{ProductID: productID, Quantity: qty})
}

// Quantity returns the quantity currently staged for a product.
func (c *Cart) Quantity(productID string) int {
	for _, line := range c.Lines {
		if line.ProductID == productID {
			return line.Quantity
		}
	}
	return 0
}

// Empty reports whether the cart holds no lines.
func (c *Cart) Empty() bool {
	return c == nil || len(c.Lines) == 0
}

// Clear drops every line.
func (c *Cart) Clear() {
	c.Lines = nil
}
