package page

import (
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-formguard/pkg/dom"
	"github.com/goliatone/go-formguard/pkg/feedback"
)

const (
	classFileLabel    = "file-input-label"
	classHasFile      = "has-file"
	classImagePreview = "image-preview-img"
	defaultFileLabel  = "Choose a file"
)

// File is a user-selected file. Content is read on the event loop after
// SelectFile returns, mirroring an asynchronous browser file read.
type File struct {
	Name    string
	Type    string
	Content io.Reader
}

type fileBinding struct {
	input   *html.Node
	label   *html.Node
	preview *html.Node
	caption string
	// generation discards reads that finish after a newer selection.
	generation int
}

func (p *Page) bindFileInputs() {
	for _, input := range p.doc.Find(`//input[@type="file"]`) {
		b := &fileBinding{input: input}
		wrapper := dom.ParentElement(input)

		b.label = dom.ChildWithClass(wrapper, classFileLabel, "", "")
		if b.label == nil {
			caption := strings.TrimSpace(dom.Attr(input, "data-label"))
			if caption == "" {
				caption = defaultFileLabel
			}
			b.label = dom.CreateElement("label", dom.A("class", classFileLabel))
			if id := dom.Attr(input, "id"); id != "" {
				dom.SetAttr(b.label, "for", id)
			}
			dom.SetText(b.label, caption)
			dom.InsertAfter(input, b.label)
		}
		b.caption = dom.Text(b.label)

		if strings.Contains(dom.Attr(input, "accept"), "image") {
			b.preview = dom.FindOne(wrapper, ".//img["+dom.ClassPredicate(classImagePreview)+"]")
			if b.preview == nil {
				b.preview = dom.CreateElement("img",
					dom.A("class", classImagePreview),
					dom.A("alt", ""),
				)
				dom.Append(wrapper, b.preview)
			}
			dom.SetStyle(b.preview, "display", "none")
		}
		p.files[input] = b
	}
}

// SelectFile is the file-preview binder: it updates the label of input right
// away and fills the image preview once the content has been read. A nil
// file clears the selection.
func (p *Page) SelectFile(input *html.Node, file *File) {
	b, ok := p.files[input]
	if !ok {
		return
	}
	b.generation++

	if file == nil {
		dom.SetText(b.label, b.caption)
		dom.RemoveClass(b.label, classHasFile)
		p.hidePreview(b)
		return
	}

	dom.SetText(b.label, file.Name)
	dom.AddClass(b.label, classHasFile)
	if b.preview == nil {
		return
	}
	if file.Type != "" && !strings.HasPrefix(file.Type, "image/") {
		p.hidePreview(b)
		return
	}
	if file.Content == nil {
		p.scheduler.Notify(fmt.Sprintf("Preview unavailable for %s", file.Name), string(feedback.SeverityWarning))
		return
	}

	gen := b.generation
	p.loop.Post(func() {
		data, err := io.ReadAll(file.Content)
		if gen != b.generation {
			return
		}
		if err != nil {
			p.logger.Error(err, "file read failed", "file", file.Name)
			p.hidePreview(b)
			p.scheduler.Notify(fmt.Sprintf("Could not read %s", file.Name), string(feedback.SeverityDanger))
			return
		}
		dom.SetAttr(b.preview, "src", dataURL(file.Type, data))
		dom.SetStyle(b.preview, "display", "block")
	})
}

func (p *Page) hidePreview(b *fileBinding) {
	if b.preview == nil {
		return
	}
	dom.RemoveAttr(b.preview, "src")
	dom.SetStyle(b.preview, "display", "none")
}

func dataURL(mediaType string, data []byte) string {
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
