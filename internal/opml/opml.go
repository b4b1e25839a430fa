// ABOUTME: OPML subscription list reading and writing
// ABOUTME: One level of folders, feeds dedup'd by URL

package opml

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"time"
)

// Feed is a single subscription in an OPML document. Folder is empty
// for top-level feeds.
type Feed struct {
	URL    string
	Title  string
	Folder string
}

// Document is a flat view of an OPML subscription list. Feed order and
// folder order are preserved from the source.
type Document struct {
	Title string

	feeds   []Feed
	folders []string
	byURL   map[string]int
}

// NewDocument returns an empty document with the given title.
func NewDocument(title string) *Document {
	return &Document{Title: title, byURL: make(map[string]int)}
}

// AllFeeds returns every feed in document order.
func (d *Document) AllFeeds() []Feed {
	out := make([]Feed, len(d.feeds))
	copy(out, d.feeds)
	return out
}

// Folders returns folder names in first-seen order. Folders with no
// feeds are included.
func (d *Document) Folders() []string {
	out := make([]string, len(d.folders))
	copy(out, d.folders)
	return out
}

// FeedsInFolder returns the feeds filed under the named folder. An
// empty name selects top-level feeds.
func (d *Document) FeedsInFolder(name string) []Feed {
	var out []Feed
	for _, f := range d.feeds {
		if f.Folder == name {
			out = append(out, f)
		}
	}
	return out
}

// AddFolder registers a folder so it appears in the output even if no
// feed is filed under it. Adding an existing folder is a no-op.
func (d *Document) AddFolder(name string) error {
	if name == "" {
		return fmt.Errorf("folder name cannot be empty")
	}
	d.ensureFolder(name)
	return nil
}

// AddFeed appends a feed, creating its folder if needed. A URL already
// in the document is rejected.
func (d *Document) AddFeed(url, title, folder string) error {
	if url == "" {
		return fmt.Errorf("feed URL cannot be empty")
	}
	if _, dup := d.byURL[url]; dup {
		return fmt.Errorf("feed already in document: %s", url)
	}
	if folder != "" {
		d.ensureFolder(folder)
	}
	if d.byURL == nil {
		d.byURL = make(map[string]int)
	}
	d.byURL[url] = len(d.feeds)
	d.feeds = append(d.feeds, Feed{URL: url, Title: title, Folder: folder})
	return nil
}

func (d *Document) ensureFolder(name string) {
	for _, f := range d.folders {
		if f == name {
			return
		}
	}
	d.folders = append(d.folders, name)
}

type opmlXML struct {
	XMLName xml.Name   `xml:"opml"`
	Version string     `xml:"version,attr"`
	Title   string     `xml:"head>title"`
	Created string     `xml:"head>dateCreated,omitempty"`
	Body    []outlines `xml:"body>outline"`
}

type outlines struct {
	Text     string     `xml:"text,attr"`
	Title    string     `xml:"title,attr,omitempty"`
	Type     string     `xml:"type,attr,omitempty"`
	XMLURL   string     `xml:"xmlUrl,attr,omitempty"`
	HTMLURL  string     `xml:"htmlUrl,attr,omitempty"`
	Children []outlines `xml:"outline"`
}

// Parse reads an OPML document. Nesting deeper than one folder level
// is flattened into the nearest folder.
func Parse(r io.Reader) (*Document, error) {
	var raw opmlXML
	if err := xml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse OPML: %w", err)
	}

	doc := NewDocument(raw.Title)
	for _, o := range raw.Body {
		collect(doc, o, "")
	}
	return doc, nil
}

// ParseFile reads an OPML document from disk.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open OPML file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func collect(doc *Document, o outlines, folder string) {
	if o.XMLURL != "" {
		// Duplicate URLs in the source keep the first occurrence.
		_ = doc.AddFeed(o.XMLURL, outlineTitle(o), folder)
		return
	}

	name := outlineTitle(o)
	if folder != "" {
		// Already inside a folder; deeper levels collapse into it.
		name = folder
	} else if name != "" {
		doc.ensureFolder(name)
	}
	for _, child := range o.Children {
		collect(doc, child, name)
	}
}

func outlineTitle(o outlines) string {
	if o.Text != "" {
		return o.Text
	}
	return o.Title
}

// Write renders the document as OPML 2.0 with feeds grouped one level
// deep by folder.
func (d *Document) Write(w io.Writer) error {
	out := opmlXML{
		Version: "2.0",
		Title:   d.Title,
		Created: time.Now().Format(time.RFC1123Z),
	}

	for _, f := range d.FeedsInFolder("") {
		out.Body = append(out.Body, feedOutline(f))
	}
	for _, folder := range d.folders {
		group := outlines{Text: folder, Title: folder}
		for _, f := range d.FeedsInFolder(folder) {
			group.Children = append(group.Children, feedOutline(f))
		}
		out.Body = append(out.Body, group)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode OPML: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// WriteFile writes the document to disk, replacing any existing file.
func (d *Document) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create OPML file: %w", err)
	}
	if err := d.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func feedOutline(f Feed) outlines {
	title := f.Title
	if title == "" {
		title = f.URL
	}
	return outlines{Text: title, Title: title, Type: "rss", XMLURL: f.URL}
}
