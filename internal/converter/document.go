package converter

// NativeVersion is the native document format version this package reads.
const NativeVersion = "1"

// ItemKind discriminates the entries of a native content stream.
type ItemKind string

const (
	ItemText    ItemKind = "text"
	ItemTable   ItemKind = "table"
	ItemPicture ItemKind = "picture"
)

// Text labels understood by the materializer. Unknown labels are treated
// as plain text.
const (
	LabelText          = "text"
	LabelSectionHeader = "section_header"
	LabelListItem      = "list_item"
	LabelFormula       = "formula"
	LabelCaption       = "caption"
	LabelFootnote      = "footnote"
)

// Document is the converter's native output: document properties plus a
// single content stream in reading order.
type Document struct {
	Version    string     `json:"version"`
	Properties Properties `json:"properties"`
	Items      []Item     `json:"items"`
}

// Properties are the document-level metadata fields. Empty means unknown.
type Properties struct {
	Format       string `json:"format,omitempty"`
	Title        string `json:"title,omitempty"`
	Author       string `json:"author,omitempty"`
	Subject      string `json:"subject,omitempty"`
	Keywords     string `json:"keywords,omitempty"`
	Creator      string `json:"creator,omitempty"`
	Producer     string `json:"producer,omitempty"`
	CreationDate string `json:"creationDate,omitempty"`
	ModDate      string `json:"modDate,omitempty"`
	Encryption   string `json:"encryption,omitempty"`
	PageCount    int    `json:"page_count,omitempty"`
}

// FillFrom copies every field of other into p that p leaves empty.
func (p *Properties) FillFrom(other Properties) {
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&p.Format, other.Format)
	fill(&p.Title, other.Title)
	fill(&p.Author, other.Author)
	fill(&p.Subject, other.Subject)
	fill(&p.Keywords, other.Keywords)
	fill(&p.Creator, other.Creator)
	fill(&p.Producer, other.Producer)
	fill(&p.CreationDate, other.CreationDate)
	fill(&p.ModDate, other.ModDate)
	fill(&p.Encryption, other.Encryption)
	if p.PageCount == 0 {
		p.PageCount = other.PageCount
	}
}

// Item is one entry of the content stream. Which fields are meaningful
// depends on Kind.
type Item struct {
	Kind  ItemKind `json:"kind"`
	Label string   `json:"label,omitempty"`
	// Page is 1-based; 0 means the converter did not attribute a page.
	Page int `json:"page,omitempty"`
	// ID is the converter's own reference for the item, used for caption links.
	ID     string `json:"id,omitempty"`
	Parent string `json:"parent,omitempty"`
	Text   string `json:"text,omitempty"`

	Caption        string   `json:"caption,omitempty"`
	Classification string   `json:"classification,omitempty"`
	Confidence     float64  `json:"confidence,omitempty"`
	Classes        []Class  `json:"classes,omitempty"`
	References     []string `json:"references,omitempty"`
	Footnotes      []string `json:"footnotes,omitempty"`

	Data  *TableData `json:"data,omitempty"`
	Image *Image     `json:"image,omitempty"`
}

// Class is one predicted picture class.
type Class struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// TableData is a table as a header row plus data rows.
type TableData struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Image carries picture bytes; Data is base64 on the wire.
type Image struct {
	MimeType string `json:"mimetype"`
	Data     []byte `json:"data"`
}

// BestClass returns the highest-confidence predicted class, if any.
func (it Item) BestClass() (Class, bool) {
	if len(it.Classes) == 0 {
		return Class{}, false
	}
	best := it.Classes[0]
	for _, c := range it.Classes[1:] {
		if c.Confidence > best.Confidence {
			best = c
		}
	}
	return best, true
}
