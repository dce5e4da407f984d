//go:build fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"lyricpresenter/internal/export"
	"lyricpresenter/internal/slides"
)

// SlidePreview shows one slide of the selected song at a time, letterboxed to
// the deck's aspect ratio.
type SlidePreview struct {
	widget.BaseWidget

	renderer export.Renderer
	slides   []slides.Slide
	deckW    int64
	deckH    int64
	index    int
	err      error

	// OnChanged runs after the visible slide changed.
	OnChanged func(index, count int)
}

// NewSlidePreview returns an empty preview.
func NewSlidePreview(r export.Renderer) *SlidePreview {
	p := &SlidePreview{renderer: r}
	p.ExtendBaseWidget(p)
	return p
}

// SetSlides replaces the shown slides, keeping the position when possible.
func (p *SlidePreview) SetSlides(ss []slides.Slide, deckW, deckH int64) {
	p.slides = ss
	p.deckW, p.deckH = deckW, deckH
	p.index = clampIndex(p.index, len(ss))
	p.changed()
}

// Show jumps to slide i.
func (p *SlidePreview) Show(i int) {
	p.index = clampIndex(i, len(p.slides))
	p.changed()
}

func (p *SlidePreview) Next() { p.Show(p.index + 1) }
func (p *SlidePreview) Prev() { p.Show(p.index - 1) }

// Index returns the visible slide and the slide count.
func (p *SlidePreview) Index() (int, int) { return p.index, len(p.slides) }

// Err returns the last rendering error.
func (p *SlidePreview) Err() error { return p.err }

func (p *SlidePreview) changed() {
	p.Refresh()
	if p.OnChanged != nil {
		p.OnChanged(p.index, len(p.slides))
	}
}

// raster renders the visible slide, or nil when there is none.
func (p *SlidePreview) raster() image.Image {
	p.err = nil
	if len(p.slides) == 0 {
		return nil
	}
	img, err := p.renderer.RenderSlide(p.slides[p.index], p.deckW, p.deckH, PreviewWidth)
	if err != nil {
		p.err = err
		return nil
	}
	return img
}

func (p *SlidePreview) MinSize() fyne.Size { return fyne.NewSize(320, 180) }

func (p *SlidePreview) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 30, G: 30, B: 34, A: 255})
	img := canvas.NewImageFromImage(nil)
	img.FillMode = canvas.ImageFillContain
	img.ScaleMode = canvas.ImageScaleSmooth
	r := &slidePreviewRenderer{p: p, bg: bg, img: img}
	r.Refresh()
	return r
}

type slidePreviewRenderer struct {
	p   *SlidePreview
	bg  *canvas.Rectangle
	img *canvas.Image
}

func (r *slidePreviewRenderer) Destroy()                     {}
func (r *slidePreviewRenderer) Objects() []fyne.CanvasObject { return []fyne.CanvasObject{r.bg, r.img} }
func (r *slidePreviewRenderer) MinSize() fyne.Size           { return r.p.MinSize() }

func (r *slidePreviewRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))
	w, h := size.Width, size.Height
	if r.p.deckW > 0 && r.p.deckH > 0 {
		aspect := float32(r.p.deckW) / float32(r.p.deckH)
		if w/h > aspect {
			w = h * aspect
		} else {
			h = w / aspect
		}
	}
	r.img.Resize(fyne.NewSize(w, h))
	r.img.Move(fyne.NewPos((size.Width-w)/2, (size.Height-h)/2))
}

func (r *slidePreviewRenderer) Refresh() {
	r.img.Image = r.p.raster()
	r.Layout(r.p.Size())
	r.img.Refresh()
	canvas.Refresh(r.p)
}
