package domain

// Category is the display data joined onto products by CategoryID.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Vendor is the display data joined onto products by VendorID.
type Vendor struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
