package materialize

import (
	"fmt"

	"github.com/joseph-ayodele/pdfplucker/internal/converter"
)

// Unknown marks metadata the converter did not provide. Fields are never
// omitted so every document has the same shape.
const Unknown = "unknown"

// Document is the stable per-job output schema.
type Document struct {
	Metadata Metadata `json:"metadata"`
	Pages    []Page   `json:"pages"`
	Images   []Image  `json:"images"`
	Tables   []Table  `json:"tables"`
}

type Metadata struct {
	Format       string `json:"format"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	Subject      string `json:"subject"`
	Keywords     string `json:"keywords"`
	Creator      string `json:"creator"`
	Producer     string `json:"producer"`
	CreationDate string `json:"creationDate"`
	ModDate      string `json:"modDate"`
	Encryption   string `json:"encryption"`
	Filename     string `json:"filename"`
	PageAmount   int    `json:"pageAmount"`
}

type Page struct {
	PageNumber int    `json:"page_number"`
	Content    string `json:"content"`
}

type Table struct {
	SelfRef    string              `json:"self_ref"`
	Caption    string              `json:"caption"`
	References []string            `json:"references"`
	Footnotes  []string            `json:"footnotes"`
	Page       int                 `json:"page"`
	Table      converter.TableData `json:"table"`
}

type Image struct {
	// Ref is the image file name, empty when the converter supplied no pixels.
	Ref            string   `json:"ref"`
	SelfRef        string   `json:"self_ref"`
	Caption        string   `json:"caption"`
	Classification string   `json:"classification"`
	Confidence     float64  `json:"confidence"`
	References     []string `json:"references"`
	Footnotes      []string `json:"footnotes"`
	Page           int      `json:"page"`
}

// ImageFile is an extracted picture waiting to be written next to the JSON.
type ImageFile struct {
	Name     string
	SelfRef  string
	MimeType string
	Data     []byte
}

// Result is everything one successful job produces.
type Result struct {
	Document *Document
	Images   []ImageFile
	// Markdown is nil unless rendering was requested.
	Markdown []byte
}

// TableRef and PictureRef build the order-assigned self_ref of the n-th
// table or picture in a document.
func TableRef(n int) string   { return fmt.Sprintf("#/tables/%d", n) }
func PictureRef(n int) string { return fmt.Sprintf("#/pictures/%d", n) }

// Token is the marker embedded in page content where a table or picture occurs.
func Token(selfRef string) string { return "<!-- " + selfRef + " -->" }
