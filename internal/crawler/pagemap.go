package crawler

// PageMap is the interactive structure of a rendered page, used to ground
// suggested scenarios in selectors that actually exist.
type PageMap struct {
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	Elements   []Element `json:"elements"`
	Navigation []NavItem `json:"navigation"`
	IsSPA      bool      `json:"isSPA"`
}

// Element is an interactive control on the page
type Element struct {
	Selector    string `json:"selector"`
	Type        string `json:"type"` // button, input type, link, select, checkbox, radio
	Text        string `json:"text,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Name        string `json:"name,omitempty"`
	ID          string `json:"id,omitempty"`
}

// NavItem is a navigation link
type NavItem struct {
	Selector string `json:"selector"`
	Text     string `json:"text"`
	Href     string `json:"href"`
}

// Point is a viewport coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}
