package compressors_test

import (
	"bytes"
	"fmt"
	"strings"
)

// fixturePage describes one page of a synthetic PDF
type fixturePage struct {
	images  int
	content string
}

// fixtureOptions tunes the synthetic PDF
type fixtureOptions struct {
	// Put the image resources on the Pages node instead of the pages
	inheritResources bool
	// Comment bytes written after the header to grow the file
	padding int
}

// buildPDF assembles a minimal, well-formed PDF with a correct xref table
func buildPDF(pages []fixturePage, opts fixtureOptions) []byte {
	var objects []string
	add := func(body string) int {
		objects = append(objects, body)
		return len(objects)
	}

	catalog := add("") // 1
	root := add("")    // 2

	var kids []string
	var sharedXObjects []string
	for pi, p := range pages {
		var xobjects []string
		for i := 0; i < p.images; i++ {
			img := add(stream("/Type /XObject /Subtype /Image /Width 1 /Height 1 /ColorSpace /DeviceGray /BitsPerComponent 8", "\x80"))
			xobjects = append(xobjects, fmt.Sprintf("/Im%d_%d %d 0 R", pi, i, img))
		}
		contents := add(stream("", p.content))

		resources := ""
		if opts.inheritResources {
			sharedXObjects = append(sharedXObjects, xobjects...)
		} else if len(xobjects) > 0 {
			resources = fmt.Sprintf("/Resources << /XObject << %s >> >> ", strings.Join(xobjects, " "))
		}
		page := add(fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [0 0 612 792] %s/Contents %d 0 R >>", root, resources, contents))
		kids = append(kids, fmt.Sprintf("%d 0 R", page))
	}

	objects[catalog-1] = fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", root)
	rootResources := ""
	if len(sharedXObjects) > 0 {
		rootResources = fmt.Sprintf(" /Resources << /XObject << %s >> >>", strings.Join(sharedXObjects, " "))
	}
	objects[root-1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d%s >>", strings.Join(kids, " "), len(kids), rootResources)

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")
	if opts.padding > 0 {
		buf.WriteString("%")
		buf.Write(bytes.Repeat([]byte("x"), opts.padding))
		buf.WriteString("\n")
	}
	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, catalog, xref)

	return buf.Bytes()
}

func stream(dict, data string) string {
	return fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", dict, len(data), data)
}

// textContent returns a content stream with exactly n text operators
func textContent(n int) string {
	var sb strings.Builder
	sb.WriteString("BT\n")
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			sb.WriteString("/F1 12 Tf\n")
		} else {
			sb.WriteString("(line) Tj\n")
		}
	}
	sb.WriteString("ET\n")
	return sb.String()
}

// imageContent paints every image of a page without any text operator
func imageContent(page, images int) string {
	var sb strings.Builder
	for i := 0; i < images; i++ {
		fmt.Fprintf(&sb, "q 100 0 0 100 0 %d cm /Im%d_%d Do Q\n", i*100, page, i)
	}
	return sb.String()
}

// fakePDF returns size bytes that start like a PDF but are not parseable
func fakePDF(size int, marker string) []byte {
	data := make([]byte, 0, size)
	data = append(data, "%PDF-1.4\n"...)
	data = append(data, marker...)
	for len(data) < size {
		data = append(data, 'A')
	}
	return data
}
