// =============================================================================
// NEM12 Parser - XML Writer Module
// =============================================================================
//
// This module renders parsed meter reads as an XML document for systems that
// ingest XML rather than NEM12.
//
// XML STRUCTURE:
//
//   <nem12 source="meter.csv">
//     <meterRead n="1" nmi="1234567890" energyUnit="KWH" total="22.75">
//       <volume n="1" date="2016-11-13" quality="A">15.5</volume>
//       <volume n="2" date="2016-11-14" quality="E">7.25</volume>
//     </meterRead>
//     <meterRead n="2" nmi="0987654321" energyUnit="KWH" total="0"/>
//   </nem12>
//
// Volumes are numbered within their meter read unless
// VolumeNumberingGlobal is set, in which case numbering continues across
// meter reads.
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/ginjaninja78/nem12-parser/internal/nem12"
)

// DateLayout is the layout of the volume date attribute.
const DateLayout = "2006-01-02"

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for XML generation.
type GenerateOptions struct {
	// Indent is the string used for indentation.
	// Default: "  " (two spaces)
	Indent string

	// IncludeXMLDeclaration determines whether to include the XML declaration.
	// Default: true
	IncludeXMLDeclaration bool

	// RootAttributes are additional attributes for the root element, written
	// in order.
	RootAttributes []xml.Attr

	// IncludeTotals adds a total attribute to every meterRead.
	// Default: true
	IncludeTotals bool

	// VolumeNumberingGlobal numbers volumes across all meter reads.
	// Default: false
	VolumeNumberingGlobal bool
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Indent:                "  ",
		IncludeXMLDeclaration: true,
		IncludeTotals:         true,
	}
}

// =============================================================================
// XML GENERATION FUNCTIONS
// =============================================================================

// Generate creates an XML document from the meter reads.
func Generate(reads []*nem12.MeterRead) ([]byte, error) {
	return GenerateWithOptions(reads, DefaultGenerateOptions())
}

// GenerateWithOptions creates an XML document with custom options.
func GenerateWithOptions(reads []*nem12.MeterRead, options GenerateOptions) ([]byte, error) {
	var buffer bytes.Buffer

	if options.IncludeXMLDeclaration {
		buffer.WriteString(xml.Header)
	}

	root := buildDocument(reads, options)
	writeElement(&buffer, root, options.Indent, 0)

	return buffer.Bytes(), nil
}

// =============================================================================
// XML DOCUMENT BUILDING
// =============================================================================

// XMLElement represents a generic XML element.
type XMLElement struct {
	XMLName    xml.Name
	Attributes []xml.Attr
	Value      string
	Children   []XMLElement
}

func buildDocument(reads []*nem12.MeterRead, options GenerateOptions) XMLElement {
	root := XMLElement{
		XMLName:    xml.Name{Local: "nem12"},
		Attributes: options.RootAttributes,
	}

	volumeIndex := 1
	for i, read := range reads {
		if !options.VolumeNumberingGlobal {
			volumeIndex = 1
		}
		root.Children = append(root.Children, buildMeterReadElement(i+1, read, options, &volumeIndex))
	}
	return root
}

// buildMeterReadElement renders one meter read and its volumes. volumeIndex
// is advanced for every volume written.
func buildMeterReadElement(n int, read *nem12.MeterRead, options GenerateOptions, volumeIndex *int) XMLElement {
	element := XMLElement{
		XMLName: xml.Name{Local: "meterRead"},
		Attributes: []xml.Attr{
			attr("n", strconv.Itoa(n)),
			attr("nmi", read.NMI()),
			attr("energyUnit", string(read.EnergyUnit())),
		},
	}
	if options.IncludeTotals {
		element.Attributes = append(element.Attributes, attr("total", read.TotalVolume().String()))
	}

	for _, v := range read.Volumes() {
		element.Children = append(element.Children, XMLElement{
			XMLName: xml.Name{Local: "volume"},
			Attributes: []xml.Attr{
				attr("n", strconv.Itoa(*volumeIndex)),
				attr("date", v.Date.Format(DateLayout)),
				attr("quality", string(v.Quality)),
			},
			Value: v.Volume.String(),
		})
		(*volumeIndex)++
	}
	return element
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

// =============================================================================
// SERIALIZATION
// =============================================================================

// writeElement writes an XML element to the buffer with indentation.
func writeElement(buffer *bytes.Buffer, element XMLElement, indent string, level int) {
	for i := 0; i < level; i++ {
		buffer.WriteString(indent)
	}

	buffer.WriteString("<")
	buffer.WriteString(element.XMLName.Local)
	for _, a := range element.Attributes {
		fmt.Fprintf(buffer, " %s=\"%s\"", a.Name.Local, escapeXML(a.Value))
	}

	if len(element.Children) == 0 && element.Value == "" {
		buffer.WriteString("/>\n")
		return
	}

	buffer.WriteString(">")

	if element.Value != "" {
		buffer.WriteString(escapeXML(element.Value))
	} else {
		buffer.WriteString("\n")
		for _, child := range element.Children {
			writeElement(buffer, child, indent, level+1)
		}
		for i := 0; i < level; i++ {
			buffer.WriteString(indent)
		}
	}

	buffer.WriteString("</")
	buffer.WriteString(element.XMLName.Local)
	buffer.WriteString(">\n")
}

// escapeXML escapes special characters for XML. Characters XML does not
// allow, including C0 controls and invalid UTF-8, become U+FFFD.
func escapeXML(s string) string {
	var buffer bytes.Buffer
	xml.EscapeText(&buffer, []byte(s))
	return buffer.String()
}
