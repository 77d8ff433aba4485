package models

import "time"

// BlockKind tags the variant of a display Block
type BlockKind string

const (
	BlockKindHeading    BlockKind = "heading"
	BlockKindParagraph  BlockKind = "paragraph"
	BlockKindBulletList BlockKind = "bullet_list"
)

// Block is one display unit produced from report text.
// Headings carry Level 2 or 3 and Text; paragraphs carry Text; bullet lists carry Items.
type Block struct {
	Kind  BlockKind `json:"kind"`
	Level int       `json:"level,omitempty"`
	Text  string    `json:"text,omitempty"`
	Items []string  `json:"items,omitempty"`
}

// Heading creates a heading block
func Heading(level int, text string) Block {
	return Block{Kind: BlockKindHeading, Level: level, Text: text}
}

// Paragraph creates a paragraph block
func Paragraph(text string) Block {
	return Block{Kind: BlockKindParagraph, Text: text}
}

// BulletList creates a bullet list block
func BulletList(items []string) Block {
	return Block{Kind: BlockKindBulletList, Items: items}
}

// Heading markers understood by the report formatter
const (
	HeadingMarker2 = "## "
	HeadingMarker3 = "### "
	BulletMarker   = "- "
)

// SectionContent describes what a report section must contain
type SectionContent string

const (
	SectionContentProse   SectionContent = "prose"
	SectionContentBullets SectionContent = "bullets"
	SectionContentDemand  SectionContent = "demand"
)

// SectionSpec is one heading of the report structure
type SectionSpec struct {
	Key         string         `json:"key"`
	Level       int            `json:"level"`
	Title       string         `json:"title"`
	Content     SectionContent `json:"content"`
	Instruction string         `json:"instruction"`
}

// Marker returns the markdown prefix for the section heading
func (s SectionSpec) Marker() string {
	if s.Level == 3 {
		return HeadingMarker3
	}
	return HeadingMarker2
}

// ReportSchema is the ordered heading structure shared by the prompt builder and the report formatter
type ReportSchema struct {
	Sections       []SectionSpec `json:"sections"`
	DemandIncrease string        `json:"demandIncrease"`
	DemandDecrease string        `json:"demandDecrease"`
}

// ExportRequest carries everything needed to render one report to PDF
type ExportRequest struct {
	MarketCode   string
	MarketName   string
	Vertical     string
	Title        string
	LastUpdated  string // Localized "last updated" label
	FetchedAt    time.Time
	Blocks       []Block
	Sources      []Source
	SourcesTitle string
	Footer       string
}

// ExportResult is a rendered PDF document
type ExportResult struct {
	Filename string
	Data     []byte
	Pages    int
}
