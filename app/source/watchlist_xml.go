package source

import (
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/lysyi3m/regcheck/app/registry"
)

// Element names of the watchlist document.
const (
	xmlRemovedSection = "ПоследниеИсключенные"
	xmlActualSection  = "АктуальныйПеречень"
	xmlSubject        = "Субъект"
	xmlPerson         = "ФЛ"
	xmlFullName       = "ФИО"
	xmlBirthDate      = "ДатаРождения"
	xmlHistory        = "История"
	xmlIncluded       = "ДатаВключения"
	xmlChanged        = "ДатаИзменения"
)

type xmlNode struct {
	XMLName xml.Name
	Text    string    `xml:",chardata"`
	Nodes   []xmlNode `xml:",any"`
}

func (n *xmlNode) child(name string) *xmlNode {
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == name {
			return &n.Nodes[i]
		}
	}
	return nil
}

func (n *xmlNode) children(name string) []*xmlNode {
	var found []*xmlNode
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == name {
			found = append(found, &n.Nodes[i])
		}
	}
	return found
}

func (n *xmlNode) childText(name string) string {
	if c := n.child(name); c != nil {
		return strings.TrimSpace(c.Text)
	}
	return ""
}

// descendants collects every element named name below n, at any depth.
func (n *xmlNode) descendants(name string, found []*xmlNode) []*xmlNode {
	for i := range n.Nodes {
		c := &n.Nodes[i]
		if c.XMLName.Local == name {
			found = append(found, c)
		}
		found = c.descendants(name, found)
	}
	return found
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %s: %w", label, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

// ParseWatchlist reads a watchlist document. Missing sections yield empty
// parts; only XML that cannot be decoded at all is an error. Subjects other
// than natural persons are ignored.
func ParseWatchlist(r io.Reader) (*registry.WatchlistDocument, error) {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charsetReader

	var root xmlNode
	if err := decoder.Decode(&root); err != nil {
		return nil, fmt.Errorf("failed to parse watchlist XML: %w", err)
	}

	doc := &registry.WatchlistDocument{}

	if removed := root.child(xmlRemovedSection); removed != nil {
		for _, n := range removed.descendants(xmlFullName, nil) {
			if name := strings.TrimSpace(n.Text); name != "" {
				doc.Removed = append(doc.Removed, name)
			}
		}
	}

	if actual := root.child(xmlActualSection); actual != nil {
		for _, subject := range actual.children(xmlSubject) {
			person := subject.child(xmlPerson)
			if person == nil {
				continue
			}

			entry := registry.WatchlistSubject{
				Name:      person.childText(xmlFullName),
				BirthDate: person.childText(xmlBirthDate),
			}
			if history := subject.child(xmlHistory); history != nil {
				for _, tag := range []string{xmlIncluded, xmlChanged} {
					for _, d := range history.children(tag) {
						entry.History = append(entry.History, strings.TrimSpace(d.Text))
					}
				}
			}
			doc.Current = append(doc.Current, entry)
		}
	}

	return doc, nil
}

// ReferenceDateFromFilename extracts the list date from a document named
// DD.MM.YYYY.xml and returns it as YYYY-MM-DD.
func ReferenceDateFromFilename(filename string) (string, error) {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	date, err := time.Parse("02.01.2006", base)
	if err != nil {
		return "", fmt.Errorf("file name must be DD.MM.YYYY.xml, got '%s'", filepath.Base(filename))
	}
	return date.Format("2006-01-02"), nil
}

// ResolveReferenceDate prefers an explicit YYYY-MM-DD date and falls back to
// the document file name.
func ResolveReferenceDate(explicit, filename string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		date, err := time.Parse("2006-01-02", explicit)
		if err != nil {
			return "", fmt.Errorf("invalid reference date '%s': expected YYYY-MM-DD", explicit)
		}
		return date.Format("2006-01-02"), nil
	}
	return ReferenceDateFromFilename(filename)
}
