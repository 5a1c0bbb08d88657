// Command bloomdemo renders a procedural night scene through the bloom
// pipeline into a window. The effect can be tuned at runtime:
//
//	H          toggle high-quality filtering
//	F          toggle anti-flicker filtering
//	Up/Down    adjust intensity
//	Left/Right adjust radius
//	Escape     quit
//
// Initial parameters can be overridden through BLOOM_* environment variables
// or a .env file (see readEffectOptions).
package main

import (
	"image"
	"image/color"
	"math"
	"math/rand"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Carmen-Shannon/bloom-go/effect/bloom"
	"github.com/Carmen-Shannon/bloom-go/effect/metrics"
	"github.com/Carmen-Shannon/bloom-go/renderer"
	"github.com/Carmen-Shannon/bloom-go/window"
)

// GLFW key codes for the letter and arrow keys used by the runtime controls.
const (
	keyH     = 72
	keyF     = 70
	keyRight = 262
	keyLeft  = 263
	keyDown  = 264
	keyUp    = 265
)

func main() {
	log := logrus.New()

	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found")
	}
	if envBool("BLOOM_DEBUG", false) {
		log.SetLevel(logrus.DebugLevel)
	}

	win := window.NewWindow(
		window.WithTitle("Bloom"),
		window.WithWidth(envInt("BLOOM_WIDTH", 1280)),
		window.WithHeight(envInt("BLOOM_HEIGHT", 720)),
	)
	defer win.Close()

	presentMode := renderer.PresentModeVSync
	if !envBool("BLOOM_VSYNC", true) {
		presentMode = renderer.PresentModeUncapped
	}
	r := renderer.NewRenderer(
		win.SurfaceDescriptor(),
		renderer.WithPresentMode(presentMode),
		renderer.WithForceSoftwareRenderer(envBool("BLOOM_SOFTWARE", false)),
		renderer.WithConstrained(envBool("BLOOM_CONSTRAINED", false)),
	)
	defer r.Destroy()
	r.ConfigureSurface(win.Width(), win.Height())

	src, err := r.CreateSourceTexture(nightScene(win.Width(), win.Height()))
	if err != nil {
		log.WithError(err).Fatal("failed to upload demo scene")
	}
	defer r.DestroySourceTexture(src)

	fx := bloom.NewBloom(r, r, r, readEffectOptions(log)...)
	if err := fx.Activate(); err != nil {
		log.WithError(err).Fatal("failed to activate bloom")
	}
	defer fx.Deactivate()

	win.SetResizeCallback(func(width, height int) {
		if width > 0 && height > 0 {
			r.ConfigureSurface(width, height)
		}
	})

	win.SetKeyDownCallback(func(keyCode uint32) {
		switch keyCode {
		case keyH:
			fx.SetHighQuality(!fx.HighQuality())
			log.WithField("highQuality", fx.HighQuality()).Info("toggled quality")
		case keyF:
			fx.SetAntiFlicker(!fx.AntiFlicker())
			log.WithField("antiFlicker", fx.AntiFlicker()).Info("toggled anti-flicker")
		case keyUp:
			fx.SetIntensity(fx.Intensity() + 0.1)
			log.WithField("intensity", fx.Intensity()).Info("adjusted intensity")
		case keyDown:
			fx.SetIntensity(fx.Intensity() - 0.1)
			log.WithField("intensity", fx.Intensity()).Info("adjusted intensity")
		case keyRight:
			fx.SetRadius(fx.Radius() + 0.5)
			log.WithField("radius", fx.Radius()).Info("adjusted radius")
		case keyLeft:
			fx.SetRadius(fx.Radius() - 0.5)
			log.WithField("radius", fx.Radius()).Info("adjusted radius")
		}
	})

	win.SetUpdateCallback(func() {
		dst, frameErr := r.BeginFrame()
		if frameErr != nil {
			log.WithError(frameErr).Warn("skipping frame")
			return
		}
		if frameErr = fx.ProcessFrame(src, dst); frameErr != nil {
			log.WithError(frameErr).Error("bloom frame failed")
		}
		r.Present()
	})

	win.ProcessMessages()
}

// readEffectOptions builds the bloom configuration from BLOOM_* environment
// variables, falling back to the effect defaults.
func readEffectOptions(log *logrus.Logger) []bloom.BloomBuilderOption {
	options := []bloom.BloomBuilderOption{
		bloom.WithThreshold(envFloat("BLOOM_THRESHOLD", 0.8)),
		bloom.WithSoftKnee(envFloat("BLOOM_SOFT_KNEE", 0.5)),
		bloom.WithRadius(envFloat("BLOOM_RADIUS", 2.5)),
		bloom.WithIntensity(envFloat("BLOOM_INTENSITY", 0.8)),
		bloom.WithMaxIterations(envInt("BLOOM_MAX_ITERATIONS", 16)),
		bloom.WithHighQuality(envBool("BLOOM_HIGH_QUALITY", true)),
		bloom.WithAntiFlicker(envBool("BLOOM_ANTI_FLICKER", false)),
	}
	if envBool("BLOOM_DEBUG", false) {
		options = append(options, bloom.WithMetrics(metrics.NewRecorder(log)))
	}
	return options
}

// nightScene paints a dark field with bright emitters: a skyline of lit
// windows, a handful of stars, and a moon. Bright pixels sit far above the
// default threshold so the glow is obvious.
func nightScene(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rng := rand.New(rand.NewSource(42))

	// Dim blue-black sky.
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 8, G: 10, B: 24, A: 255})
		}
	}

	// Stars.
	for i := 0; i < width*height/4000; i++ {
		x := rng.Intn(width)
		y := rng.Intn(height * 2 / 3)
		img.SetRGBA(x, y, color.RGBA{R: 255, G: 250, B: 230, A: 255})
	}

	// Moon.
	mx, my, mr := width*4/5, height/5, height/24
	for y := my - mr; y <= my+mr; y++ {
		for x := mx - mr; x <= mx+mr; x++ {
			dx, dy := float64(x-mx), float64(y-my)
			if math.Sqrt(dx*dx+dy*dy) <= float64(mr) && x >= 0 && x < width && y >= 0 && y < height {
				img.SetRGBA(x, y, color.RGBA{R: 250, G: 245, B: 220, A: 255})
			}
		}
	}

	// Skyline of dark buildings with lit windows.
	base := height * 3 / 4
	for bx := 0; bx < width; {
		bw := 40 + rng.Intn(80)
		bh := height/6 + rng.Intn(height/3)
		for y := base - bh; y < height; y++ {
			for x := bx; x < bx+bw && x < width; x++ {
				img.SetRGBA(x, y, color.RGBA{R: 14, G: 14, B: 18, A: 255})
			}
		}
		for wy := base - bh + 6; wy < height-6; wy += 14 {
			for wx := bx + 6; wx < bx+bw-6 && wx < width-6; wx += 12 {
				if rng.Float64() < 0.4 {
					for y := wy; y < wy+6; y++ {
						for x := wx; x < wx+5; x++ {
							img.SetRGBA(x, y, color.RGBA{R: 255, G: 214, B: 120, A: 255})
						}
					}
				}
			}
		}
		bx += bw + 4 + rng.Intn(20)
	}

	return img
}

func envFloat(name string, fallback float32) float32 {
	if v := os.Getenv(name); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			return float32(f)
		}
	}
	return fallback
}

func envInt(name string, fallback int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(name string, fallback bool) bool {
	if v := os.Getenv(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
