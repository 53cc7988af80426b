package font

import (
	"bytes"
	"context"
	"fmt"
	"image"

	gotext "github.com/go-text/typesetting/font"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/specialistvlad/assetgrid/internal/imaging"
	"github.com/specialistvlad/assetgrid/internal/pack"
	"github.com/specialistvlad/assetgrid/internal/params"
	"github.com/specialistvlad/assetgrid/internal/processor"
	"github.com/specialistvlad/assetgrid/internal/registry"
	"github.com/zclconf/go-cty/cty"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// DefaultCharset is printable ASCII.
const DefaultCharset = " !\"#$%&'()*+,-./0123456789:;<=>?@ABCDEFGHIJKLMNOPQRSTUVWXYZ[\\]^_`abcdefghijklmnopqrstuvwxyz{|}~"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Processor rasterizes a TrueType or OpenType font into a glyph atlas.
type Processor struct{}

// Describe implements processor.Processor.
func (Processor) Describe() processor.Details {
	return processor.Details{
		Name:        "font",
		Description: "Rasterizes a font into an alpha atlas <stem>.png with glyph metrics in <stem>.font.hcl.",
		Extensions:  []string{".ttf", ".otf"},
		Parameters: []processor.Parameter{
			{
				Name:        "charset",
				Description: "Characters to rasterize.",
				Group:       "Glyphs",
				Kind:        params.KindString,
				Default:     params.String(DefaultCharset),
			},
			{
				Name:        "size",
				Description: "Font size in points.",
				Group:       "Glyphs",
				Kind:        params.KindFloat,
				Default:     params.Float(16),
			},
			{
				Name:        "dpi",
				Description: "Resolution the size is converted to pixels with.",
				Group:       "Glyphs",
				Kind:        params.KindFloat,
				Default:     params.Float(72),
			},
			{
				Name:        "padding",
				Description: "Empty pixels between glyphs.",
				Group:       "Layout",
				Kind:        params.KindInt,
				Default:     params.Int(1),
			},
			{
				Name:        "max_width",
				Description: "Widest atlas allowed, in pixels.",
				Group:       "Layout",
				Kind:        params.KindInt,
				Default:     params.Int(1024),
			},
		},
	}
}

type glyph struct {
	r       rune
	mask    *image.Alpha
	offset  image.Point
	advance fixed.Int26_6
}

// Process implements processor.Processor.
func (Processor) Process(ctx context.Context, pc *processor.Context) error {
	data, err := pc.ReadInput(pc.Asset.Path)
	if err != nil {
		return fmt.Errorf("read font: %w", err)
	}

	runes, err := coveredRunes(pc, data)
	if err != nil {
		return err
	}

	size := pc.Parameters.GetFloat("size", 16)
	dpi := pc.Parameters.GetFloat("dpi", 72)
	if size <= 0 || dpi <= 0 {
		return fmt.Errorf("size and dpi must be positive, got %g and %g", size, dpi)
	}
	otf, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(otf, &opentype.FaceOptions{Size: size, DPI: dpi, Hinting: xfont.HintingFull})
	if err != nil {
		return fmt.Errorf("create face: %w", err)
	}
	defer face.Close()

	glyphs := make([]glyph, 0, len(runes))
	items := make([]pack.Item, 0, len(runes))
	for _, r := range runes {
		if err := ctx.Err(); err != nil {
			return err
		}
		g, ok := rasterize(face, r)
		if !ok {
			pc.Warnf("Face has no outline for %q.", r)
			continue
		}
		glyphs = append(glyphs, g)
		items = append(items, pack.Item{Name: string(r), Size: g.mask.Bounds().Size()})
	}

	padding := int(pc.Parameters.GetInt("padding", 1))
	maxWidth := int(pc.Parameters.GetInt("max_width", 1024))
	sheet, err := pack.Shelves(items, maxWidth, padding)
	if err != nil {
		return err
	}
	dst := image.NewAlpha(image.Rect(0, 0, sheet.Width, sheet.Height))
	for i, pl := range sheet.Placements {
		copyAlpha(dst, pl.Rect.Min, glyphs[i].mask)
	}

	png, err := imaging.EncodePNG(dst)
	if err != nil {
		return err
	}
	stem := pc.Stem()
	if err := pc.WriteOutput(stem+".png", png); err != nil {
		return err
	}
	if err := pc.WriteOutput(stem+".font.hcl", metrics(stem+".png", size, face.Metrics(), glyphs, sheet)); err != nil {
		return err
	}
	pc.Verbosef("Rasterized %d glyphs into %dx%d.", len(glyphs), sheet.Width, sheet.Height)
	return nil
}

// coveredRunes returns the distinct runes of the charset the font maps to a
// glyph, warning about the rest.
func coveredRunes(pc *processor.Context, data []byte) ([]rune, error) {
	face, err := gotext.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	charset := pc.Parameters.GetString("charset", DefaultCharset)
	var runes []rune
	seen := make(map[rune]bool)
	for _, r := range charset {
		if seen[r] {
			continue
		}
		seen[r] = true
		if _, ok := face.NominalGlyph(r); !ok {
			pc.Warnf("Font has no glyph for %q.", r)
			continue
		}
		runes = append(runes, r)
	}
	if len(runes) == 0 {
		return nil, fmt.Errorf("font covers none of the %d requested characters", len(seen))
	}
	return runes, nil
}

func rasterize(face xfont.Face, r rune) (glyph, bool) {
	bounds, advance, ok := face.GlyphBounds(r)
	if !ok {
		return glyph{}, false
	}
	minX, minY := bounds.Min.X.Floor(), bounds.Min.Y.Floor()
	maxX, maxY := bounds.Max.X.Ceil(), bounds.Max.Y.Ceil()
	mask := image.NewAlpha(image.Rect(0, 0, maxX-minX, maxY-minY))
	d := &xfont.Drawer{
		Dst:  mask,
		Src:  image.White,
		Face: face,
		Dot:  fixed.P(-minX, -minY),
	}
	d.DrawString(string(r))
	return glyph{r: r, mask: mask, offset: image.Pt(minX, minY), advance: advance}, true
}

func copyAlpha(dst *image.Alpha, at image.Point, src *image.Alpha) {
	b := src.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.SetAlpha(at.X+x, at.Y+y, src.AlphaAt(x, y))
		}
	}
}

func metrics(sheetPath string, size float64, m xfont.Metrics, glyphs []glyph, sheet pack.Sheet) []byte {
	f := hclwrite.NewEmptyFile()
	body := f.Body()
	body.SetAttributeValue("image", cty.StringVal(sheetPath))
	body.SetAttributeValue("size", cty.NumberFloatVal(size))
	body.SetAttributeValue("line_height", cty.NumberIntVal(int64(m.Height.Ceil())))
	body.SetAttributeValue("ascent", cty.NumberIntVal(int64(m.Ascent.Ceil())))
	body.SetAttributeValue("descent", cty.NumberIntVal(int64(m.Descent.Ceil())))
	for i, g := range glyphs {
		rect := sheet.Placements[i].Rect
		body.AppendNewline()
		gb := body.AppendNewBlock("glyph", []string{fmt.Sprintf("U+%04X", g.r)}).Body()
		gb.SetAttributeValue("char", cty.StringVal(string(g.r)))
		gb.SetAttributeValue("x", cty.NumberIntVal(int64(rect.Min.X)))
		gb.SetAttributeValue("y", cty.NumberIntVal(int64(rect.Min.Y)))
		gb.SetAttributeValue("width", cty.NumberIntVal(int64(rect.Dx())))
		gb.SetAttributeValue("height", cty.NumberIntVal(int64(rect.Dy())))
		gb.SetAttributeValue("x_offset", cty.NumberIntVal(int64(g.offset.X)))
		gb.SetAttributeValue("y_offset", cty.NumberIntVal(int64(g.offset.Y)))
		gb.SetAttributeValue("advance", cty.NumberIntVal(int64(g.advance.Round())))
	}
	return f.Bytes()
}

// Register registers the processor with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterProcessor(Processor{})
}
