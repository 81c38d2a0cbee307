package assets

// Layer describes one renderable element exported from a design file.
type Layer struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Text       string `json:"text,omitempty"`
	FontFamily string `json:"font_family,omitempty"`
	AssetPath  string `json:"asset_path,omitempty"`
}

// Placeholder describes one fillable slot exported from a template.
type Placeholder struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Required bool   `json:"required"`
}

// Layer and placeholder kinds shared by the exporters.
const (
	KindText  = "text"
	KindImage = "image"
	KindVideo = "video"
)
