package vectordb

// Source identifies which authoritative record a chunk came from.
type Source string

const (
	SourceFAQ      Source = "faq"
	SourceDocument Source = "document"
)

// Metadata holds structured information about a stored chunk. Chunks of one
// logical FAQ or document share the same FAQID/DocID; that key is the unit
// of update and delete.
type Metadata struct {
	Source       Source
	FAQID        string
	DocID        string
	Title        string
	SectionIndex int // 1-based when the source used manual section markers, 0 otherwise
}

// KeyField returns the metadata field name that identifies the chunk's
// logical record ("faq_id" or "doc_id") together with its value.
func (m Metadata) KeyField() (field, value string) {
	if m.Source == SourceFAQ {
		return "faq_id", m.FAQID
	}
	return "doc_id", m.DocID
}

// Document represents a piece of content to be stored and searched.
type Document struct {
	ID       string
	Content  string
	Metadata Metadata
}

// SearchResult pairs a document with its similarity score.
type SearchResult struct {
	Document   Document
	Similarity float32
}
