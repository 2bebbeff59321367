package parser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"feed-ingest/models"
)

// DefaultRecordNames are the element names treated as one product, matched
// case-insensitively wherever they appear below the root (productFeed/product,
// feed/products/product, rss/channel/item).
var DefaultRecordNames = []string{"product", "item"}

// Options configures a Parser.
type Options struct {
	RecordNames []string
}

// Parser turns a raw XML feed into RawFeedRecords.
type Parser struct {
	recordNames map[string]bool
}

// New creates a Parser. Zero Options use DefaultRecordNames.
func New(opts Options) *Parser {
	names := opts.RecordNames
	if len(names) == 0 {
		names = DefaultRecordNames
	}
	p := &Parser{recordNames: make(map[string]bool, len(names))}
	for _, n := range names {
		p.recordNames[strings.ToLower(n)] = true
	}
	return p
}

// element is a generic XML node; the feed's field names are not fixed, so
// every child is captured.
type element struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []element  `xml:",any"`
}

// Parse reads the whole feed. A document that is not well-formed yields a
// *models.ParseError and no records.
func (p *Parser) Parse(data []byte) ([]models.RawFeedRecord, error) {
	records := []models.RawFeedRecord{}
	err := p.Stream(data, func(rec models.RawFeedRecord) error {
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Stream calls fn for each record in document order. Records decoded before a
// syntax error has been hit are already delivered, so callers that need
// all-or-nothing semantics must buffer until Stream returns nil. An error
// returned by fn stops the stream and is returned unchanged.
func (p *Parser) Stream(data []byte, fn func(models.RawFeedRecord) error) error {
	idx := 0
	return p.walk(data, func(el *element) error {
		rec := toRecord(collapse(el))
		rec.Index = idx
		idx++
		return fn(rec)
	})
}

func (p *Parser) walk(data []byte, visit func(*element) error) error {
	dec := newDecoder(data)

	depth := 0
	sawRoot := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return &models.ParseError{Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				sawRoot = true
			}
			if depth > 0 && p.recordNames[strings.ToLower(t.Name.Local)] {
				var el element
				if err := dec.DecodeElement(&el, &t); err != nil {
					return &models.ParseError{Err: err}
				}
				if err := visit(&el); err != nil {
					return err
				}
				continue
			}
			depth++
		case xml.EndElement:
			depth--
		}
	}

	if !sawRoot {
		return &models.ParseError{Err: errors.New("document has no root element")}
	}
	return nil
}

func newDecoder(data []byte) *xml.Decoder {
	dec := xml.NewDecoder(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	dec.Strict = true
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = charsetReader
	return dec
}

// charsetReader decodes feeds declared as ISO-8859-1, Windows-1252 and the
// other encodings known to the WHATWG index.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}
