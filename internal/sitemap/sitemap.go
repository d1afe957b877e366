// Package sitemap parses sitemap XML documents and loads them over HTTP.
package sitemap

import (
	"bytes"
	"compress/gzip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"

	"github.com/sitefetch/sitefetch/internal/sitefetch"
)

// ErrUnparsable is returned when a document is neither a urlset nor a
// sitemapindex.
var ErrUnparsable = errors.New("unable to parse sitemap document")

// urlSet is the structure of a <urlset> leaf document.
type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	URL     []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

// sitemapIndex is the structure of a <sitemapindex> document.
type sitemapIndex struct {
	XMLName xml.Name `xml:"sitemapindex"`
	Sitemap []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

var gzipMagic = []byte("\x1f\x8b\x08")

// Parse detects the document kind by structure and extracts the <loc>
// entries. Gzip-compressed payloads are transparently decompressed.
func Parse(content []byte) (sitefetch.Listing, error) {
	if bytes.HasPrefix(content, gzipMagic) {
		uncompressed, err := gunzip(content)
		if err != nil {
			return sitefetch.Listing{}, fmt.Errorf("decompress sitemap: %w", err)
		}
		content = uncompressed
	}

	if idx, err := decode[sitemapIndex](content); err == nil {
		locs := make([]string, 0, len(idx.Sitemap))
		for _, sm := range idx.Sitemap {
			if sm.Loc != "" {
				locs = append(locs, sm.Loc)
			}
		}
		return sitefetch.Listing{Kind: sitefetch.ListingIndex, Locs: locs}, nil
	}

	if set, err := decode[urlSet](content); err == nil {
		locs := make([]string, 0, len(set.URL))
		for _, u := range set.URL {
			if u.Loc != "" {
				locs = append(locs, u.Loc)
			}
		}
		return sitefetch.Listing{Kind: sitefetch.ListingURLSet, Locs: locs}, nil
	}

	return sitefetch.Listing{}, ErrUnparsable
}

// decode unmarshals with a charset-aware reader so non-UTF-8 sitemaps
// still parse. The XMLName field rejects documents of the wrong root
// element, which is what makes kind detection structural.
func decode[T any](content []byte) (T, error) {
	var doc T
	dec := xml.NewDecoder(bytes.NewReader(content))
	dec.CharsetReader = charset.NewReaderLabel
	if err := dec.Decode(&doc); err != nil {
		return doc, err
	}
	return doc, nil
}

func gunzip(content []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = reader.Close()
	}()

	uncompressed, err := io.ReadAll(reader)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	return uncompressed, nil
}
