// Package xmlcodec maps registry entries, registry objects and ingest reports
// to their XML vocabulary.
package xmlcodec

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
)

type registryEntryXML[T any] struct {
	XMLName     xml.Name `xml:"registryEntry"`
	ID          string   `xml:"id,attr"`
	Type        string   `xml:"type,attr"`
	Description string   `xml:"description,omitempty"`
	Keys        []string `xml:"keys>key"`
	Entry       T        `xml:"entry"`
}

type licenseXML struct {
	XMLName xml.Name `xml:"license"`
	domain.License
}

type metadataSchemeXML struct {
	XMLName xml.Name `xml:"metadataScheme"`
	domain.MetadataScheme
}

type metadataFormatXML struct {
	XMLName xml.Name `xml:"metadataFormat"`
	domain.MetadataFormat
}

// EntryRef points at a registry entry by URL.
type EntryRef struct {
	ID   string `xml:"id,attr"`
	Type string `xml:"type,attr,omitempty"`
	Href string `xml:"href,attr"`
}

// EntryRefs is returned when a lookup matches more than one entry.
type EntryRefs struct {
	XMLName xml.Name   `xml:"entryRefs"`
	Refs    []EntryRef `xml:"entryRef"`
}

// Types lists the entry types known to a registry.
type Types struct {
	XMLName xml.Name `xml:"types"`
	Types   []string `xml:"type"`
}

// Error is the body of every non-2xx registry response.
type Error struct {
	XMLName xml.Name `xml:"error"`
	Code    int      `xml:"code,attr"`
	Message string   `xml:"message,attr"`
}

func (e Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

func encode(w io.Writer, v any) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// EncodeEntry writes e as a registryEntry element.
func EncodeEntry[T any](w io.Writer, e domain.RegistryEntry[T]) error {
	return encode(w, registryEntryXML[T]{
		ID:          e.ID,
		Type:        e.Type,
		Description: e.Description,
		Keys:        e.Keys,
		Entry:       e.Entry,
	})
}

// DecodeEntry reads a registryEntry element.
func DecodeEntry[T any](r io.Reader) (domain.RegistryEntry[T], error) {
	var x registryEntryXML[T]
	if err := xml.NewDecoder(r).Decode(&x); err != nil {
		return domain.RegistryEntry[T]{}, err
	}
	return domain.RegistryEntry[T]{
		ID:          x.ID,
		Type:        x.Type,
		Description: x.Description,
		Keys:        x.Keys,
		Entry:       x.Entry,
	}, nil
}

// Encode writes a standalone document for one of the registry objects, an
// ingest report or one of the response envelopes in this package.
func Encode(w io.Writer, v any) error {
	switch t := v.(type) {
	case domain.License:
		return encode(w, licenseXML{License: t})
	case domain.MetadataScheme:
		return encode(w, metadataSchemeXML{MetadataScheme: t})
	case domain.MetadataFormat:
		return encode(w, metadataFormatXML{MetadataFormat: t})
	case *domain.IngestReport:
		return encode(w, reportToXML(t))
	case domain.IngestReport:
		return encode(w, reportToXML(&t))
	case EntryRefs, Types, Error:
		return encode(w, t)
	default:
		return fmt.Errorf("xmlcodec: unsupported type %T", v)
	}
}

// Decode reads a document written by Encode into a value of type T.
func Decode[T any](r io.Reader) (T, error) {
	var out T
	dec := xml.NewDecoder(r)

	switch p := any(&out).(type) {
	case *domain.License:
		var x licenseXML
		if err := dec.Decode(&x); err != nil {
			return out, err
		}
		*p = x.License
	case *domain.MetadataScheme:
		var x metadataSchemeXML
		if err := dec.Decode(&x); err != nil {
			return out, err
		}
		*p = x.MetadataScheme
	case *domain.MetadataFormat:
		var x metadataFormatXML
		if err := dec.Decode(&x); err != nil {
			return out, err
		}
		*p = x.MetadataFormat
	case *domain.IngestReport:
		var x ingestReportXML
		if err := dec.Decode(&x); err != nil {
			return out, err
		}
		*p = *x.toDomain()
	case *EntryRefs, *Types, *Error:
		if err := dec.Decode(p); err != nil {
			return out, err
		}
	default:
		return out, fmt.Errorf("xmlcodec: unsupported type %T", out)
	}
	return out, nil
}
