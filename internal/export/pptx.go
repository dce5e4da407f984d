/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export writes assembled decks to disk: the Office Open XML
// presentation that is the application's output format, and PNG renderings
// of single slides for the preview pane.
package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"lyricpresenter/internal/domain"
	applog "lyricpresenter/internal/log"
	"lyricpresenter/internal/slides"
	"lyricpresenter/internal/storage"
	"lyricpresenter/internal/version"
)

const (
	nsA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsP   = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsRel = "http://schemas.openxmlformats.org/package/2006/relationships"

	relOfficeDoc   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relCoreProps   = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	relExtProps    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties"
	relSlideMaster = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster"
	relSlideLayout = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout"
	relSlide       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	relTheme       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme"
	relPresProps   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/presProps"
	relViewProps   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/viewProps"
	relTableStyles = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/tableStyles"

	ctPresentation = "application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"
	ctSlide        = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
	ctSlideMaster  = "application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"
	ctSlideLayout  = "application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"
	ctTheme        = "application/vnd.openxmlformats-officedocument.theme+xml"
	ctPresProps    = "application/vnd.openxmlformats-officedocument.presentationml.presProps+xml"
	ctViewProps    = "application/vnd.openxmlformats-officedocument.presentationml.viewProps+xml"
	ctTableStyles  = "application/vnd.openxmlformats-officedocument.presentationml.tableStyles+xml"
	ctCore         = "application/vnd.openxmlformats-package.core-properties+xml"
	ctApp          = "application/vnd.openxmlformats-officedocument.extended-properties+xml"

	xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

	// default text box insets used by presentation software (0.1in / 0.05in)
	insetX = 91440
	insetY = 45720
)

// PPTXWriter writes decks as .pptx files.
type PPTXWriter struct {
	// Title goes into the document properties.
	Title string
	// Now stamps the document properties; nil means time.Now.
	Now func() time.Time
}

// Write encodes deck into path. The file appears only once fully written.
func (w PPTXWriter) Write(path string, deck slides.Deck) error {
	l := applog.WithOperation(applog.WithComponent("export"), "pptx").With(
		slog.String("path", path), slog.Int("slides", len(deck.Slides)))
	if !strings.EqualFold(filepath.Ext(path), ".pptx") {
		l.Warn("output file does not end in .pptx")
	}
	err := storage.WriteFileAtomic(path, func(out io.Writer) error { return w.Encode(out, deck) })
	if err != nil {
		l.Error("write pptx failed", slog.Any("err", err))
		return fmt.Errorf("write pptx: %w", err)
	}
	l.Info("pptx written")
	return nil
}

// Encode writes the zip package for deck to out.
func (w PPTXWriter) Encode(out io.Writer, deck slides.Deck) error {
	if deck.Width <= 0 || deck.Height <= 0 {
		return fmt.Errorf("invalid deck size %dx%d", deck.Width, deck.Height)
	}
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	stamp := now().UTC()
	title := w.Title
	if title == "" {
		title = "Lyrics"
	}

	parts := []struct {
		name string
		data string
	}{
		{"[Content_Types].xml", contentTypesXML(len(deck.Slides))},
		{"_rels/.rels", relsXML([]rel{
			{"rId1", relOfficeDoc, "ppt/presentation.xml"},
			{"rId2", relCoreProps, "docProps/core.xml"},
			{"rId3", relExtProps, "docProps/app.xml"},
		})},
		{"docProps/core.xml", coreXML(title, stamp)},
		{"docProps/app.xml", appXML(len(deck.Slides))},
		{"ppt/presentation.xml", presentationXML(deck)},
		{"ppt/_rels/presentation.xml.rels", presentationRelsXML(len(deck.Slides))},
		{"ppt/presProps.xml", xmlHeader + `<p:presentationPr xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `"/>`},
		{"ppt/viewProps.xml", xmlHeader + `<p:viewPr xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `"><p:gridSpacing cx="76200" cy="76200"/></p:viewPr>`},
		{"ppt/tableStyles.xml", xmlHeader + `<a:tblStyleLst xmlns:a="` + nsA + `" def="{5C22544A-7EE6-4342-B048-85BDC9FD1C3A}"/>`},
		{"ppt/slideMasters/slideMaster1.xml", slideMasterXML},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", relsXML([]rel{
			{"rId1", relSlideLayout, "../slideLayouts/slideLayout1.xml"},
			{"rId2", relTheme, "../theme/theme1.xml"},
		})},
		{"ppt/slideLayouts/slideLayout1.xml", slideLayoutXML},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", relsXML([]rel{
			{"rId1", relSlideMaster, "../slideMasters/slideMaster1.xml"},
		})},
		{"ppt/theme/theme1.xml", themeXML},
	}

	zw := zip.NewWriter(out)
	for _, p := range parts {
		if err := addZipFile(zw, p.name, []byte(p.data), stamp); err != nil {
			return fmt.Errorf("add %s: %w", p.name, err)
		}
	}
	for i, s := range deck.Slides {
		n := i + 1
		if err := addZipFile(zw, fmt.Sprintf("ppt/slides/slide%d.xml", n), slideXML(s), stamp); err != nil {
			return fmt.Errorf("add slide %d: %w", n, err)
		}
		rels := relsXML([]rel{{"rId1", relSlideLayout, "../slideLayouts/slideLayout1.xml"}})
		if err := addZipFile(zw, fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n), []byte(rels), stamp); err != nil {
			return fmt.Errorf("add slide %d rels: %w", n, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close zip: %w", err)
	}
	return nil
}

func addZipFile(zw *zip.Writer, name string, data []byte, mod time.Time) error {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: mod})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

type rel struct {
	id, typ, target string
}

func relsXML(rels []rel) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Relationships xmlns="` + nsRel + `">`)
	for _, r := range rels {
		fmt.Fprintf(&b, `<Relationship Id="%s" Type="%s" Target="%s"/>`, r.id, r.typ, r.target)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

func contentTypesXML(slideCount int) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	b.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	b.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	override := func(part, ct string) {
		fmt.Fprintf(&b, `<Override PartName="%s" ContentType="%s"/>`, part, ct)
	}
	override("/ppt/presentation.xml", ctPresentation)
	override("/ppt/slideMasters/slideMaster1.xml", ctSlideMaster)
	override("/ppt/slideLayouts/slideLayout1.xml", ctSlideLayout)
	override("/ppt/theme/theme1.xml", ctTheme)
	override("/ppt/presProps.xml", ctPresProps)
	override("/ppt/viewProps.xml", ctViewProps)
	override("/ppt/tableStyles.xml", ctTableStyles)
	override("/docProps/core.xml", ctCore)
	override("/docProps/app.xml", ctApp)
	for i := 1; i <= slideCount; i++ {
		override(fmt.Sprintf("/ppt/slides/slide%d.xml", i), ctSlide)
	}
	b.WriteString(`</Types>`)
	return b.String()
}

func coreXML(title string, stamp time.Time) string {
	ts := stamp.Format(time.RFC3339)
	return xmlHeader + `<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"` +
		` xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/"` +
		` xmlns:dcmitype="http://purl.org/dc/dcmitype/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` +
		`<dc:title>` + xmlEsc(title) + `</dc:title><dc:creator>LyricPresenter</dc:creator>` +
		`<cp:lastModifiedBy>LyricPresenter ` + xmlEsc(version.Version) + `</cp:lastModifiedBy><cp:revision>1</cp:revision>` +
		`<dcterms:created xsi:type="dcterms:W3CDTF">` + ts + `</dcterms:created>` +
		`<dcterms:modified xsi:type="dcterms:W3CDTF">` + ts + `</dcterms:modified>` +
		`</cp:coreProperties>`
}

func appXML(slideCount int) string {
	return xmlHeader + `<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties"` +
		` xmlns:vt="http://schemas.openxmlformats.org/officeDocument/2006/docPropsVTypes">` +
		`<Application>LyricPresenter</Application><PresentationFormat>On-screen Show</PresentationFormat>` +
		fmt.Sprintf(`<Slides>%d</Slides>`, slideCount) + `</Properties>`
}

// slide relationship ids start after the fixed presentation parts
const firstSlideRel = 6

func presentationXML(deck slides.Deck) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<p:presentation xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `" saveSubsetFonts="1">`)
	b.WriteString(`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`)
	if len(deck.Slides) > 0 {
		b.WriteString(`<p:sldIdLst>`)
		for i := range deck.Slides {
			fmt.Fprintf(&b, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, firstSlideRel+i)
		}
		b.WriteString(`</p:sldIdLst>`)
	}
	fmt.Fprintf(&b, `<p:sldSz cx="%d" cy="%d"/>`, deck.Width, deck.Height)
	b.WriteString(`<p:notesSz cx="6858000" cy="9144000"/>`)
	b.WriteString(`</p:presentation>`)
	return b.String()
}

func presentationRelsXML(slideCount int) string {
	rels := []rel{
		{"rId1", relSlideMaster, "slideMasters/slideMaster1.xml"},
		{"rId2", relPresProps, "presProps.xml"},
		{"rId3", relViewProps, "viewProps.xml"},
		{"rId4", relTheme, "theme/theme1.xml"},
		{"rId5", relTableStyles, "tableStyles.xml"},
	}
	for i := 0; i < slideCount; i++ {
		rels = append(rels, rel{fmt.Sprintf("rId%d", firstSlideRel+i), relSlide, fmt.Sprintf("slides/slide%d.xml", i+1)})
	}
	return relsXML(rels)
}

const emptyTree = `<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
	`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`

func slideXML(s slides.Slide) []byte {
	var b bytes.Buffer
	b.WriteString(xmlHeader)
	b.WriteString(`<p:sld xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `">`)
	b.WriteString(`<p:cSld><p:bg><p:bgPr><a:solidFill>`)
	b.WriteString(srgb(s.Background))
	b.WriteString(`</a:solidFill><a:effectLst/></p:bgPr></p:bg><p:spTree>`)
	b.WriteString(emptyTree)
	for i, r := range s.Regions {
		writeTextBox(&b, i+2, r)
	}
	b.WriteString(`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`)
	return b.Bytes()
}

func writeTextBox(b *bytes.Buffer, id int, r slides.Region) {
	fmt.Fprintf(b, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="TextBox %d"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`, id, id-1)
	fmt.Fprintf(b, `<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm>`, r.Rect.X, r.Rect.Y, r.Rect.W, r.Rect.H)
	b.WriteString(`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom><a:noFill/></p:spPr>`)
	fmt.Fprintf(b, `<p:txBody><a:bodyPr wrap="square" lIns="%d" tIns="%d" rIns="%d" bIns="%d" rtlCol="0"><a:noAutofit/></a:bodyPr><a:lstStyle/>`,
		insetX, insetY, insetX, insetY)
	fmt.Fprintf(b, `<a:p><a:pPr algn="%s"/>`, alignAttr(r.Align))
	var last slides.Run
	for _, run := range r.Runs {
		last = run
		if run.Break {
			b.WriteString(`<a:br>`)
			writeRunProps(b, run)
			b.WriteString(`</a:br>`)
			continue
		}
		if run.Text == "" {
			continue
		}
		b.WriteString(`<a:r>`)
		writeRunProps(b, run)
		b.WriteString(`<a:t>` + xmlEsc(run.Text) + `</a:t></a:r>`)
	}
	fmt.Fprintf(b, `<a:endParaRPr lang="en-US" sz="%d" dirty="0"/>`, last.Size*100)
	b.WriteString(`</a:p></p:txBody></p:sp>`)
}

func writeRunProps(b *bytes.Buffer, run slides.Run) {
	fmt.Fprintf(b, `<a:rPr lang="en-US" sz="%d"`, run.Size*100)
	if run.Bold {
		b.WriteString(` b="1"`)
	}
	if run.Italic {
		b.WriteString(` i="1"`)
	}
	if run.Underline {
		b.WriteString(` u="sng"`)
	}
	b.WriteString(` dirty="0"><a:solidFill>` + srgb(run.Color) + `</a:solidFill>`)
	if run.Font != "" {
		f := xmlEsc(run.Font)
		b.WriteString(`<a:latin typeface="` + f + `"/><a:cs typeface="` + f + `"/>`)
	}
	b.WriteString(`</a:rPr>`)
}

func srgb(c domain.Color) string {
	return `<a:srgbClr val="` + strings.TrimPrefix(c.Hex(), "#") + `"/>`
}

func alignAttr(a domain.Alignment) string {
	switch a {
	case domain.AlignLeft:
		return "l"
	case domain.AlignRight:
		return "r"
	case domain.AlignJustify:
		return "just"
	}
	return "ctr"
}

// xmlEsc escapes markup characters and drops code points XML 1.0 forbids.
func xmlEsc(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '&':
			b.WriteString("&amp;")
		case r == '<':
			b.WriteString("&lt;")
		case r == '>':
			b.WriteString("&gt;")
		case r == '"':
			b.WriteString("&quot;")
		case r == '\'':
			b.WriteString("&apos;")
		case r == '\t' || r == '\n' || r == '\r':
			b.WriteRune(r)
		case r < 0x20 || r == 0xFFFE || r == 0xFFFF || (r >= 0xD800 && r <= 0xDFFF):
			// not representable in XML 1.0
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
