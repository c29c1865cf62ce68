// Package extract streams asset-data exhibit XML into typed asset records.
package extract

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const (
	namespacePeekSize = 1024
	assetDataElement  = "assetData"
)

// ErrNoNamespace indicates the document's root carries no default namespace
// declaration. Without it the assetData container cannot be qualified, so
// extraction of the file aborts.
var ErrNoNamespace = errors.New("no default xml namespace declared")

var namespacePattern = regexp.MustCompile(`xmlns="([^"]+)"`)

// Field is one (tag, text) pair under an asset element. Repeats of the same
// tag are kept as separate fields in document order.
type Field struct {
	Tag   string
	Value string
}

// PeekNamespace extracts the default namespace URI from the leading bytes of
// an exhibit document.
func PeekNamespace(head []byte) (string, error) {
	match := namespacePattern.FindSubmatch(head)
	if match == nil {
		return "", ErrNoNamespace
	}
	return string(match[1]), nil
}

// StreamAssets walks the document token by token, invoking fn once per asset
// element found under the namespace-qualified assetData container. Documents
// run to hundreds of megabytes, so nothing beyond one asset's fields is held
// in memory at a time.
func StreamAssets(r io.Reader, namespace string, fn func(fields []Field) error) error {
	decoder := xml.NewDecoder(r)

	inContainer := false
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read xml token: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			if !inContainer {
				if t.Name.Local == assetDataElement && t.Name.Space == namespace {
					inContainer = true
				}
				continue
			}
			// Inside the container every start element opens one asset.
			fields, err := collectAsset(decoder, t)
			if err != nil {
				return err
			}
			if err := fn(fields); err != nil {
				return err
			}
		case xml.EndElement:
			if inContainer && t.Name.Local == assetDataElement && t.Name.Space == namespace {
				inContainer = false
			}
		}
	}
}

// collectAsset consumes the subtree of one asset element, returning the
// (tag, text) pairs of its direct children in document order.
func collectAsset(decoder *xml.Decoder, start xml.StartElement) ([]Field, error) {
	var fields []Field
	depth := 0
	var currentTag string
	var text strings.Builder

	for {
		token, err := decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("read asset element %s: %w", start.Name.Local, err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			if depth == 1 {
				currentTag = t.Name.Local
				text.Reset()
			}
		case xml.CharData:
			if depth == 1 {
				text.Write(t)
			}
		case xml.EndElement:
			if depth == 0 {
				// Close of the asset element itself.
				return fields, nil
			}
			if depth == 1 {
				if value := strings.TrimSpace(text.String()); value != "" {
					fields = append(fields, Field{Tag: currentTag, Value: value})
				}
			}
			depth--
		}
	}
}
