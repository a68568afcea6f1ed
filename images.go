package main

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/pkg/errors"
	"github.com/remeh/sizedwaitgroup"

	"arrowfall/collide"
	"arrowfall/world"
)

const imagesDir = "images"

// spriteFiles are the optional PNG overrides looked up under
// data/images. Anything missing is drawn procedurally.
var spriteFiles = []string{"player", "bow", "bow_alt", "arrow", "shadow", "tree"}

type sprites struct {
	player *ebiten.Image
	bow    *ebiten.Image
	bowAlt *ebiten.Image
	arrow  *ebiten.Image
	shadow *ebiten.Image
	tree   *ebiten.Image
}

// decodeSpriteFiles reads every sprite PNG found in dir in parallel.
// Missing files are not an error; unreadable ones are returned in errs.
func decodeSpriteFiles(dir string) (imgs map[string]image.Image, errs []error) {
	imgs = make(map[string]image.Image)
	var mu sync.Mutex
	wg := sizedwaitgroup.New(runtime.NumCPU())
	for _, name := range spriteFiles {
		wg.Add()
		go func(name string) {
			defer wg.Done()
			path := filepath.Join(dir, name+".png")
			f, err := os.Open(path)
			if err != nil {
				if !os.IsNotExist(err) {
					mu.Lock()
					errs = append(errs, errors.Wrapf(err, "open %s", path))
					mu.Unlock()
				}
				return
			}
			defer f.Close()
			img, err := png.Decode(f)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, errors.Wrapf(err, "decode %s", path))
				return
			}
			imgs[name] = img
		}(name)
	}
	wg.Wait()
	return imgs, errs
}

// loadSprites builds the sprite set from data/images, falling back to
// simple vector art for anything not on disk.
func loadSprites() *sprites {
	dir := filepath.Join(dataDirPath, imagesDir)
	imgs, errs := decodeSpriteFiles(dir)
	for _, err := range errs {
		logWarn("sprites: %v", err)
	}
	logDebug("sprites: %d of %d loaded from %s", len(imgs), len(spriteFiles), dir)

	pick := func(name string, fallback func() *ebiten.Image) *ebiten.Image {
		if img, ok := imgs[name]; ok {
			return ebiten.NewImageFromImage(img)
		}
		return fallback()
	}
	return &sprites{
		player: pick("player", drawPlayerSprite),
		bow:    pick("bow", func() *ebiten.Image { return drawBowSprite(color.RGBA{0x8b, 0x5a, 0x2b, 0xff}) }),
		bowAlt: pick("bow_alt", func() *ebiten.Image { return drawBowSprite(color.RGBA{0xc8, 0x8a, 0x3c, 0xff}) }),
		arrow:  pick("arrow", drawArrowSprite),
		shadow: pick("shadow", drawShadowSprite),
		tree:   pick("tree", drawTreeSprite),
	}
}

func imageSize(img *ebiten.Image) collide.Vec {
	b := img.Bounds()
	return collide.Vec{X: float64(b.Dx()), Y: float64(b.Dy())}
}

// playerSize is the collision size of the local player: the body sprite at
// its drawn scale.
func (s *sprites) playerSize() collide.Vec {
	sz := imageSize(s.player)
	return collide.Vec{X: sz.X * world.BodyScale, Y: sz.Y * world.BodyScale}
}

func drawPlayerSprite() *ebiten.Image {
	img := ebiten.NewImage(32, 40)
	vector.DrawFilledRect(img, 8, 14, 16, 20, color.RGBA{0x3a, 0x6e, 0xa5, 0xff}, true)
	vector.DrawFilledCircle(img, 16, 9, 7, color.RGBA{0xf1, 0xc2, 0x7d, 0xff}, true)
	vector.DrawFilledRect(img, 9, 34, 5, 6, color.RGBA{0x33, 0x33, 0x33, 0xff}, false)
	vector.DrawFilledRect(img, 18, 34, 5, 6, color.RGBA{0x33, 0x33, 0x33, 0xff}, false)
	return img
}

func drawBowSprite(clr color.Color) *ebiten.Image {
	img := ebiten.NewImage(14, 30)
	var p vector.Path
	p.MoveTo(2, 1)
	p.QuadTo(16, 15, 2, 29)
	drawOp := &vector.DrawPathOptions{AntiAlias: true}
	drawOp.ColorScale.ScaleWithColor(clr)
	vector.StrokePath(img, &p, &vector.StrokeOptions{Width: 3}, drawOp)
	vector.StrokeLine(img, 2, 1, 2, 29, 1, color.RGBA{0xee, 0xee, 0xee, 0xff}, true)
	return img
}

func drawArrowSprite() *ebiten.Image {
	img := ebiten.NewImage(28, 6)
	vector.StrokeLine(img, 0, 3, 22, 3, 2, color.RGBA{0x6b, 0x4a, 0x2b, 0xff}, true)
	var p vector.Path
	p.MoveTo(28, 3)
	p.LineTo(21, 0)
	p.LineTo(21, 6)
	p.Close()
	drawOp := &vector.DrawPathOptions{AntiAlias: true}
	drawOp.ColorScale.ScaleWithColor(color.RGBA{0xaa, 0xaa, 0xaa, 0xff})
	vector.FillPath(img, &p, nil, drawOp)
	return img
}

func drawShadowSprite() *ebiten.Image {
	img := ebiten.NewImage(48, 16)
	// A circle stretched into an ellipse.
	tmp := ebiten.NewImage(16, 16)
	vector.DrawFilledCircle(tmp, 8, 8, 8, color.Black, true)
	dop := &ebiten.DrawImageOptions{}
	dop.GeoM.Scale(3, 1)
	img.DrawImage(tmp, dop)
	return img
}

func drawTreeSprite() *ebiten.Image {
	img := ebiten.NewImage(64, 64)
	vector.DrawFilledRect(img, 27, 40, 10, 24, color.RGBA{0x6b, 0x4a, 0x2b, 0xff}, false)
	vector.DrawFilledCircle(img, 32, 26, 24, color.RGBA{0x2e, 0x7d, 0x32, 0xff}, true)
	vector.DrawFilledCircle(img, 24, 20, 10, color.RGBA{0x43, 0xa0, 0x47, 0xff}, true)
	return img
}
