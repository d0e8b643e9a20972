package pattern

import (
	"strconv"
	"strings"
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomediumitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"
	"golang.org/x/image/font/gofont/gosmallcapsitalic"
	"golang.org/x/text/cases"

	"github.com/gogpu/watermark/internal/cache"
)

// fontSpec is the CSS font description of a text run.
type fontSpec struct {
	family  string
	weight  string
	style   string
	variant string
}

// fontBook resolves CSS font descriptions to gg faces. Custom families
// registered with WithFont take precedence; everything else maps onto the
// Go font family.
type fontBook struct {
	mu     sync.Mutex
	custom map[string][]byte

	sources *cache.Cache[string, *text.FontSource]
	faces   *cache.Cache[faceKey, text.Face]
}

type faceKey struct {
	source string
	size   float64
}

func newFontBook() *fontBook {
	return &fontBook{
		custom:  make(map[string][]byte),
		sources: cache.New[string, *text.FontSource](32),
		faces:   cache.New[faceKey, text.Face](256),
	}
}

func (b *fontBook) register(family string, ttf []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.custom[normalizeFamily(family)] = ttf
}

// face returns a face for spec at size pixels.
func (b *fontBook) face(spec fontSpec, size float64) (text.Face, error) {
	key, data := b.lookup(spec)
	return b.faces.GetOrCreate(faceKey{key, size}, func() (text.Face, error) {
		src, err := b.sources.GetOrCreate(key, func() (*text.FontSource, error) {
			return text.NewFontSource(data)
		})
		if err != nil {
			return nil, err
		}
		return src.Face(size), nil
	})
}

func (b *fontBook) lookup(spec fontSpec) (key string, data []byte) {
	families := strings.Split(spec.family, ",")

	b.mu.Lock()
	for _, f := range families {
		name := normalizeFamily(f)
		if ttf, ok := b.custom[name]; ok {
			b.mu.Unlock()
			return "custom:" + name, ttf
		}
	}
	b.mu.Unlock()

	mono := false
	for _, f := range families {
		if strings.Contains(normalizeFamily(f), "mono") {
			mono = true
			break
		}
	}
	bold, medium := weightClass(spec.weight)
	italic := spec.style == "italic" || strings.HasPrefix(spec.style, "oblique")

	switch {
	case mono && bold && italic:
		return "gomonobolditalic", gomonobolditalic.TTF
	case mono && bold:
		return "gomonobold", gomonobold.TTF
	case mono && italic:
		return "gomonoitalic", gomonoitalic.TTF
	case mono:
		return "gomono", gomono.TTF
	case spec.variant == "small-caps" && italic:
		return "gosmallcapsitalic", gosmallcapsitalic.TTF
	case spec.variant == "small-caps":
		return "gosmallcaps", gosmallcaps.TTF
	case bold && italic:
		return "gobolditalic", gobolditalic.TTF
	case bold:
		return "gobold", gobold.TTF
	case medium && italic:
		return "gomediumitalic", gomediumitalic.TTF
	case medium:
		return "gomedium", gomedium.TTF
	case italic:
		return "goitalic", goitalic.TTF
	default:
		return "goregular", goregular.TTF
	}
}

// weightClass maps a CSS font-weight onto the faces the Go family ships.
func weightClass(w string) (bold, medium bool) {
	switch w = strings.ToLower(strings.TrimSpace(w)); w {
	case "bold", "bolder":
		return true, false
	case "", "normal", "lighter":
		return false, false
	}
	n, err := strconv.Atoi(w)
	if err != nil {
		return false, false
	}
	return n >= 600, n >= 500 && n < 600
}

func normalizeFamily(f string) string {
	return cases.Fold().String(strings.Trim(strings.TrimSpace(f), `"'`))
}
