package atlas

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"path"
	"runtime"
	"strings"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/specialistvlad/assetgrid/internal/asset"
	"github.com/specialistvlad/assetgrid/internal/imaging"
	"github.com/specialistvlad/assetgrid/internal/pack"
	"github.com/specialistvlad/assetgrid/internal/params"
	"github.com/specialistvlad/assetgrid/internal/processor"
	"github.com/specialistvlad/assetgrid/internal/registry"
	"github.com/zclconf/go-cty/cty"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

// ErrEmptyList is returned for a sprite list without entries.
var ErrEmptyList = errors.New("sprite list is empty")

// Module implements the registry.Module interface for this package.
type Module struct{}

// Processor packs the sprites named by a list file into one sheet.
type Processor struct{}

// Describe implements processor.Processor.
func (Processor) Describe() processor.Details {
	return processor.Details{
		Name:        "atlas",
		Description: "Packs the images listed in the source file into <stem>.png and writes their layout to <stem>.atlas.hcl.",
		Extensions:  []string{".atlas", ".txt"},
		Parameters: []processor.Parameter{
			{
				Name:        "padding",
				Description: "Empty pixels between sprites and around the sheet edge.",
				Group:       "Layout",
				Kind:        params.KindInt,
				Default:     params.Int(1),
			},
			{
				Name:        "max_width",
				Description: "Widest sheet allowed, in pixels.",
				Group:       "Layout",
				Kind:        params.KindInt,
				Default:     params.Int(2048),
			},
		},
	}
}

type sprite struct {
	path string
	img  image.Image
}

// Process implements processor.Processor.
func (Processor) Process(ctx context.Context, pc *processor.Context) error {
	list, err := pc.ReadInput(pc.Asset.Path)
	if err != nil {
		return fmt.Errorf("read sprite list: %w", err)
	}
	paths, err := parseList(list, path.Dir(pc.Asset.Path))
	if err != nil {
		return err
	}

	sprites, err := decodeAll(ctx, pc, paths)
	if err != nil {
		return err
	}

	items := make([]pack.Item, len(sprites))
	for i, s := range sprites {
		items[i] = pack.Item{Name: s.path, Size: s.img.Bounds().Size()}
	}
	padding := int(pc.Parameters.GetInt("padding", 1))
	maxWidth := int(pc.Parameters.GetInt("max_width", 2048))
	sheet, err := pack.Shelves(items, maxWidth, padding)
	if err != nil {
		return err
	}

	dst := image.NewNRGBA(image.Rect(0, 0, sheet.Width, sheet.Height))
	for i, pl := range sheet.Placements {
		src := sprites[i].img
		draw.Draw(dst, pl.Rect, src, src.Bounds().Min, draw.Src)
	}
	data, err := imaging.EncodePNG(dst)
	if err != nil {
		return err
	}

	stem := pc.Stem()
	if err := pc.WriteOutput(stem+".png", data); err != nil {
		return err
	}
	if err := pc.WriteOutput(stem+".atlas.hcl", layout(stem+".png", sheet)); err != nil {
		return err
	}
	pc.Verbosef("Packed %d sprites into %dx%d.", len(sprites), sheet.Width, sheet.Height)
	return nil
}

// parseList reads one sprite path per line, relative to dir. Blank lines and
// lines starting with '#' are skipped.
func parseList(data []byte, dir string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)
	sc := bufio.NewScanner(bytes.NewReader(data))
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		p, err := asset.NormalizePath(path.Join(dir, line))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		paths = append(paths, p)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, ErrEmptyList
	}
	return paths, nil
}

func decodeAll(ctx context.Context, pc *processor.Context, paths []string) ([]sprite, error) {
	sprites := make([]sprite, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := pc.ReadInput(p)
			if err != nil {
				return fmt.Errorf("read sprite: %w", err)
			}
			img, _, err := imaging.Decode(data)
			if err != nil {
				return fmt.Errorf("sprite '%s': %w", p, err)
			}
			sprites[i] = sprite{path: p, img: img}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sprites, nil
}

func layout(sheetPath string, sheet pack.Sheet) []byte {
	f := hclwrite.NewEmptyFile()
	body := f.Body()
	body.SetAttributeValue("image", cty.StringVal(sheetPath))
	body.SetAttributeValue("width", cty.NumberIntVal(int64(sheet.Width)))
	body.SetAttributeValue("height", cty.NumberIntVal(int64(sheet.Height)))
	for _, pl := range sheet.Placements {
		body.AppendNewline()
		sb := body.AppendNewBlock("sprite", []string{pl.Name}).Body()
		sb.SetAttributeValue("x", cty.NumberIntVal(int64(pl.Rect.Min.X)))
		sb.SetAttributeValue("y", cty.NumberIntVal(int64(pl.Rect.Min.Y)))
		sb.SetAttributeValue("width", cty.NumberIntVal(int64(pl.Rect.Dx())))
		sb.SetAttributeValue("height", cty.NumberIntVal(int64(pl.Rect.Dy())))
	}
	return f.Bytes()
}

// Register registers the processor with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterProcessor(Processor{})
}
