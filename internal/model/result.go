package model

// BoundingBox locates a region on a page in pixel coordinates.
type BoundingBox struct {
	X0     float64 `json:"x0"`
	Y0     float64 `json:"y0"`
	X1     float64 `json:"x1"`
	Y1     float64 `json:"y1"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Word is the leaf of the block tree.
type Word struct {
	Text        string      `json:"text"`
	Confidence  float64     `json:"confidence"`
	BoundingBox BoundingBox `json:"boundingBox"`
	FontSize    int         `json:"fontSize,omitempty"`
	ContentType string      `json:"contentType,omitempty"`
}

// Line groups words that sit on the same text baseline.
type Line struct {
	Words       []Word      `json:"words"`
	Text        string      `json:"text"`
	Confidence  float64     `json:"confidence"`
	BoundingBox BoundingBox `json:"boundingBox"`
	Alignment   string      `json:"alignment,omitempty"`
}

// Paragraph groups adjacent lines.
type Paragraph struct {
	Lines        []Line      `json:"lines"`
	Text         string      `json:"text"`
	Confidence   float64     `json:"confidence"`
	BoundingBox  BoundingBox `json:"boundingBox"`
	TextType     string      `json:"textType,omitempty"`
	HeadingLevel int         `json:"level,omitempty"`
}

// Block is the top-level region of a page (a paragraph group, a table,
// a figure caption, etc).
type Block struct {
	Paragraphs   []Paragraph `json:"paragraphs"`
	Text         string      `json:"text"`
	Confidence   float64     `json:"confidence"`
	BoundingBox  BoundingBox `json:"boundingBox"`
	BlockType    string      `json:"blockType,omitempty"`
	ReadingOrder int         `json:"readingOrder,omitempty"`
	Page         int         `json:"page"`

	// PageWidth/PageHeight are the pixel dimensions of the page this
	// block was read from. They are plumbing for the Enricher's
	// page-relative thresholds (§4.4), not part of the serialized
	// Result, so they carry no json tag exposure.
	PageWidth  float64 `json:"-"`
	PageHeight float64 `json:"-"`
}

// TableCell is one cell of a detected table.
type TableCell struct {
	Text        string      `json:"text"`
	Row         int         `json:"row"`
	Column      int         `json:"column"`
	BoundingBox BoundingBox `json:"boundingBox"`
}

// Table is a detected tabular region.
type Table struct {
	Rows        int         `json:"rows"`
	Columns     int         `json:"columns"`
	Cells       []TableCell `json:"cells"`
	Page        int         `json:"page"`
	BoundingBox BoundingBox `json:"boundingBox"`
	HasHeader   bool        `json:"hasHeader"`
}

// KeyValuePair is a label/value pair detected by regex (e.g. "Invoice #: 1234").
type KeyValuePair struct {
	Key           string      `json:"key"`
	Value         string      `json:"value"`
	Confidence    float64     `json:"confidence"`
	SourceBlock   int         `json:"sourceBlock"`
	KeyBoundingBox   BoundingBox `json:"keyBoundingBox,omitempty"`
	ValueBoundingBox BoundingBox `json:"valueBoundingBox,omitempty"`
}

// SmartField is a named, strongly-typed field extracted via the smart-field
// regex set (invoice number, PO number, total, etc).
type SmartField struct {
	Name       string  `json:"name"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// NotableDatum is a generic entity extracted from free text (email, IBAN,
// credit card, SSN, VAT number, phone, URL, IP, date, routing number...).
type NotableDatum struct {
	Type         string `json:"type"`
	Value        string `json:"value"`
	DisplayValue string `json:"displayValue,omitempty"`
	Context      string `json:"context,omitempty"`
}

// NotableData groups everything the entity pass finds into the four
// buckets the spec exposes, rather than one flat list.
type NotableData struct {
	Entities        []NotableDatum `json:"entities,omitempty"`
	CurrencyAmounts []NotableDatum `json:"currencyAmounts,omitempty"`
	Dates           []NotableDatum `json:"dates,omitempty"`
	Identifiers     []NotableDatum `json:"identifiers,omitempty"`
}

// PageLayout summarizes a page's visual structure.
type PageLayout struct {
	Columns     int     `json:"columns"`
	HasHeader   bool    `json:"hasHeader"`
	HasFooter   bool    `json:"hasFooter"`
	TextDensity float64 `json:"textDensity"`
}

// Structure is the enrichment layer's synthesized view of the document.
type Structure struct {
	Title         string         `json:"title,omitempty"`
	Headings      []string       `json:"headings,omitempty"`
	Lists         [][]string     `json:"lists,omitempty"`
	Tables        []Table        `json:"tables,omitempty"`
	KeyValuePairs []KeyValuePair `json:"keyValuePairs,omitempty"`
	SmartFields   []SmartField   `json:"smartFields,omitempty"`
	NotableData   NotableData    `json:"notableData"`
	DocumentType  string         `json:"documentType,omitempty"`
	PageLayout    PageLayout     `json:"pageLayout"`
}

// Metadata carries pipeline provenance about a Result.
type Metadata struct {
	Language          string  `json:"language,omitempty"`
	ProcessingMs      int64   `json:"processingTimeMs"`
	PageCount         int     `json:"pageCount,omitempty"`
	WordCount         int     `json:"wordCount"`
	LineCount         int     `json:"lineCount"`
	AverageConfidence float64 `json:"avgConfidence"`
}

// Result is the complete OCR output attached to a completed Job.
type Result struct {
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence"`
	Blocks     []Block   `json:"blocks"`
	Structure  Structure `json:"structure"`
	Metadata   Metadata  `json:"metadata"`
}
