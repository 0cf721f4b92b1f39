// Package manifest loads repository content from an XML export manifest.
//
// The expected layout is:
//
//	<export>
//	  <categories>
//	    <category path="topics/ice/" parent="topics/"/>
//	  </categories>
//	  <files>
//	    <file>
//	      <destination>events/conf.html</destination>
//	      <type>np_event</type>
//	      <uuidstructure>...</uuidstructure>
//	      <uuidresource>...</uuidresource>
//	      <flags>0</flags>
//	      <properties>
//	        <property><name>collector.date</name><value>1710025200000</value></property>
//	      </properties>
//	      <relations>
//	        <relation><path>/system/categories/topics/ice/</path><type>CATEGORY</type></relation>
//	      </relations>
//	    </file>
//	  </files>
//	</export>
package manifest

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/cyp0633/libeventcal/storage"
	"github.com/google/uuid"
)

// CategoryRoot is stripped from category relation paths.
const CategoryRoot = "/system/categories/"

// flagTempFile is the export flag bit of temporary files.
const flagTempFile = 1024

// Sink receives the loaded content. *memory.Store satisfies it.
type Sink interface {
	RegisterType(name string) storage.TypeID
	Put(ctx context.Context, item storage.Item) error
	AddCategory(path, parent string)
}

// LoadFile loads the manifest at path into sink.
func LoadFile(ctx context.Context, path string, sink Sink) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	return Load(ctx, f, sink)
}

// Load parses a manifest and stores every file entry. It returns the number
// of stored items.
func Load(ctx context.Context, r io.Reader, sink Sink) (int, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return 0, &storage.Error{Type: storage.ErrInvalidInput, Message: "failed to parse manifest", Err: err}
	}

	root := doc.SelectElement("export")
	if root == nil {
		return 0, &storage.Error{Type: storage.ErrInvalidInput, Message: "missing export element"}
	}

	for _, cat := range root.FindElements("categories/category") {
		path := normaliseCategory(cat.SelectAttrValue("path", ""))
		if path == "" {
			continue
		}
		sink.AddCategory(path, normaliseCategory(cat.SelectAttrValue("parent", "")))
	}

	count := 0
	for i, file := range root.FindElements("files/file") {
		item, err := parseFile(file, sink)
		if err != nil {
			return count, fmt.Errorf("file %d: %w", i, err)
		}
		if err := sink.Put(ctx, item); err != nil {
			return count, fmt.Errorf("file %d: %w", i, err)
		}
		count++
	}

	return count, nil
}

func parseFile(file *etree.Element, sink Sink) (storage.Item, error) {
	dest := childText(file, "destination")
	if dest == "" {
		return storage.Item{}, &storage.Error{Type: storage.ErrInvalidInput, Message: "missing destination"}
	}
	if !strings.HasPrefix(dest, "/") {
		dest = "/" + dest
	}

	typeName := childText(file, "type")
	if typeName == "" {
		return storage.Item{}, &storage.Error{Type: storage.ErrInvalidInput, Message: "missing type for " + dest}
	}

	item := storage.Item{
		Path:       dest,
		TypeID:     sink.RegisterType(typeName),
		Properties: make(map[string]string),
	}

	var err error
	if item.ResourceID, err = parseUUID(childText(file, "uuidresource")); err != nil {
		return storage.Item{}, &storage.Error{Type: storage.ErrInvalidInput, Message: "bad uuidresource for " + dest, Err: err}
	}
	if item.StructureID, err = parseUUID(childText(file, "uuidstructure")); err != nil {
		return storage.Item{}, &storage.Error{Type: storage.ErrInvalidInput, Message: "bad uuidstructure for " + dest, Err: err}
	}

	if raw := childText(file, "flags"); raw != "" {
		bits, err := strconv.Atoi(raw)
		if err != nil {
			return storage.Item{}, &storage.Error{Type: storage.ErrInvalidInput, Message: "bad flags for " + dest, Err: err}
		}
		if bits&flagTempFile != 0 {
			item.Flags |= storage.FlagTemporary
		}
	}

	for _, prop := range file.FindElements("properties/property") {
		name := childText(prop, "name")
		if name == "" {
			continue
		}
		item.Properties[name] = childText(prop, "value")
	}

	for _, rel := range file.FindElements("relations/relation") {
		if !strings.EqualFold(childText(rel, "type"), "CATEGORY") {
			continue
		}
		if path := normaliseCategory(childText(rel, "path")); path != "" {
			item.Categories = append(item.Categories, path)
		}
	}

	return item, nil
}

func childText(e *etree.Element, tag string) string {
	child := e.SelectElement(tag)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.Text())
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(s)
}

// normaliseCategory strips the category root and ensures a trailing slash.
func normaliseCategory(p string) string {
	p = strings.TrimSpace(p)
	p = strings.TrimPrefix(p, CategoryRoot)
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return ""
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}
