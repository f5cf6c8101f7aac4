package dataset

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type vocObject struct {
	name                   string
	xmin, ymin, xmax, ymax int
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// writeVOC writes a Pascal VOC annotation referring to filename.
func writeVOC(t *testing.T, path, filename string, objects ...vocObject) {
	t.Helper()
	var b strings.Builder
	fmt.Fprintf(&b, "<annotation>\n\t<filename>%s</filename>\n", filename)
	for _, o := range objects {
		fmt.Fprintf(&b, "\t<object><name>%s</name><bndbox><xmin>%d</xmin><ymin>%d</ymin><xmax>%d</xmax><ymax>%d</ymax></bndbox></object>\n",
			o.name, o.xmin, o.ymin, o.xmax, o.ymax)
	}
	b.WriteString("</annotation>\n")
	writeFile(t, path, b.String())
}

// writePNG writes a w x h image, or a gray mask when values is set.
func writePNG(t *testing.T, path string, w, h int, values func(x, y int) uint8) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	var img image.Image
	if values != nil {
		gray := image.NewGray(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				gray.SetGray(x, y, color.Gray{Y: values(x, y)})
			}
		}
		img = gray
	} else {
		rgba := image.NewRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				rgba.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
			}
		}
		img = rgba
	}

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

// newVOCFixture lays out root/images/<i>.png and root/annotations/<i>.xml for every entry
// of objects; an empty entry produces an annotation without <object>.
func newVOCFixture(t *testing.T, objects [][]vocObject) string {
	t.Helper()
	root := t.TempDir()
	for i, objs := range objects {
		name := fmt.Sprintf("%02d", i)
		writePNG(t, filepath.Join(root, "images", name+".png"), 40, 30, nil)
		writeVOC(t, filepath.Join(root, "annotations", name+".xml"), "../images/"+name+".png", objs...)
	}
	return root
}

func quietConfig(root string) Config {
	cfg := DefaultConfig(root)
	cfg.Quiet = true
	return cfg
}

var (
	cup    = vocObject{name: "cup", xmin: 1, ymin: 2, xmax: 11, ymax: 12}
	can    = vocObject{name: "can", xmin: 5, ymin: 5, xmax: 25, ymax: 20}
	carton = vocObject{name: "carton", xmin: 0, ymin: 0, xmax: 40, ymax: 30}
)
