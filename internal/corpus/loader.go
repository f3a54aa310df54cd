// Package corpus loads the markdown knowledge base from disk and turns each
// file into an index.Document. Documents carry their id, citation source,
// full text, and the (heading, body) sections parsed from "##" headings.
package corpus

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/narongchai190/soiler/internal/retrieval/index"
)

var (
	titleRe   = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	sourceRe  = regexp.MustCompile(`(?m)^Source:\s*(.+)$`)
	docIDRe   = regexp.MustCompile(`(?m)^Document ID:\s*(.+)$`)
	sectionRe = regexp.MustCompile(`(?ms)^##\s+([^\n]+)\n(.*?)(?:\n##\s|\z)`)
)

// Load reads every *.md file under dir and parses it into a Document.
// Unreadable or empty files are skipped with a warning; they never abort the
// load. Documents are returned sorted by filename so ids assigned by
// fallback stay stable across runs.
func Load(dir string) ([]index.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading corpus dir %s: %w", dir, err)
	}
	logger := slog.Default().With("component", "corpus-loader")

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	docs := make([]index.Document, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("skipping unreadable corpus file", "path", path, "error", err)
			continue
		}
		doc := Parse(name, string(data))
		if strings.TrimSpace(doc.Text) == "" {
			logger.Warn("skipping empty corpus file", "path", path)
			continue
		}
		docs = append(docs, doc)
	}
	logger.Info("corpus loaded", "dir", dir, "documents", len(docs))
	return docs, nil
}

// Parse extracts id, source, title, and sections from one markdown file.
// Missing metadata falls back to a deterministic id derived from the
// filename and to the title (or filename stem) as source label.
func Parse(filename, content string) index.Document {
	title := stem(filename)
	if m := titleRe.FindStringSubmatch(content); m != nil {
		title = strings.TrimSpace(m[1])
	}

	source := title
	if m := sourceRe.FindStringSubmatch(content); m != nil {
		source = strings.TrimSpace(m[1])
	}

	id := fallbackID(filename)
	if m := docIDRe.FindStringSubmatch(content); m != nil {
		id = strings.TrimSpace(m[1])
	}

	var sections []index.Section
	rest := content
	for {
		m := sectionRe.FindStringSubmatchIndex(rest)
		if m == nil {
			break
		}
		heading := strings.TrimSpace(rest[m[2]:m[3]])
		body := strings.TrimSpace(rest[m[4]:m[5]])
		sections = append(sections, index.Section{Heading: heading, Body: body})
		// Resume at the start of the next "##" heading, if the match
		// ended on one.
		next := m[5]
		if next >= len(rest) {
			break
		}
		rest = rest[next:]
	}

	return index.Document{
		ID:       id,
		Source:   source,
		Text:     content,
		Sections: sections,
	}
}

// fallbackID derives a stable document id from the filename for corpus files
// that carry no "Document ID:" line.
func fallbackID(filename string) string {
	sum := sha256.Sum256([]byte(stem(filename)))
	return fmt.Sprintf("DOC-%X", sum[:4])
}

func stem(filename string) string {
	return strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
}
