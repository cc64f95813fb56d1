package caption

import "strings"

// GeneratedCaption is the structured copy produced for a listing.
type GeneratedCaption struct {
	Title    string   `json:"title"`
	Caption  string   `json:"caption"`
	Bullets  []string `json:"bullets"`
	CTA      string   `json:"cta"`
	Hashtags []string `json:"hashtags"`
}

// Display returns the caption a reader sees: the body, a blank line, then the
// hashtags joined by spaces. Without hashtags it is the body alone.
func (g *GeneratedCaption) Display() string {
	if len(g.Hashtags) == 0 {
		return g.Caption
	}
	return g.Caption + "\n\n" + strings.Join(g.Hashtags, " ")
}
