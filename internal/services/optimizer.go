package services

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"filesystem-api/internal/constants"
	"filesystem-api/internal/utils"

	"github.com/chai2010/webp"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	// Register decoders beyond the stdlib set.
	_ "golang.org/x/image/webp"
)

// ErrFormatNotSupported signals the optimizer was configured with a source
// whose MIME type could not be resolved to an image. This is a misuse of the
// optimizer, not a recoverable condition, and is never retried.
var ErrFormatNotSupported = errors.New("image format not supported for optimization")

// webpSourceMimes are the source formats eligible for WebP transcoding.
var webpSourceMimes = map[string]bool{
	"image/jpeg": true,
	"image/gif":  true,
	"image/png":  true,
}

// OptimizerSettings is the resolved configuration for one optimization run.
type OptimizerSettings struct {
	Mime              string
	Extension         string
	ResizedOutputPath string
	WebpOutputPath    string
	Width             int
	Height            int
	Quality           int
	Webp              bool
}

// OptimizerOverrides are caller-supplied deviations from the defaults.
type OptimizerOverrides struct {
	Width   *int  `json:"width"`
	Height  *int  `json:"height"`
	Quality *int  `json:"quality"`
	Webp    *bool `json:"webp"`
}

// Optimizer produces a resized copy and/or a WebP transcode of a source image
// on a scratch area. The source may be a local file path or an http(s) URL.
type Optimizer struct {
	source     string
	scratchDir string
	client     *http.Client
	settings   *OptimizerSettings
	data       []byte
}

// NewOptimizer creates an optimizer for the given source endpoint.
func NewOptimizer(source, scratchDir string) *Optimizer {
	return &Optimizer{
		source:     source,
		scratchDir: scratchDir,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Settings probes the source image and merges defaults with overrides. A
// source that does not decode as a supported image leaves the MIME empty,
// which makes the later Optimize call fail with ErrFormatNotSupported.
func (o *Optimizer) Settings(defaults OptimizerSettings, overrides OptimizerOverrides) (*Optimizer, error) {
	data, err := o.fetch()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch source: %w", err)
	}

	mime := ""
	if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		mime = mimeForFormat(format)
	}

	extension := ""
	if mime != "" {
		extension, _ = constants.LookupExtension(mime)
	}

	filename := utils.RandomString(30)

	settings := OptimizerSettings{
		Mime:              mime,
		Extension:         extension,
		ResizedOutputPath: filepath.Join(o.scratchDir, filename+"--resized."+extension),
		WebpOutputPath:    filepath.Join(o.scratchDir, filename+"--webp.webp"),
		Width:             defaults.Width,
		Height:            defaults.Height,
		Quality:           defaults.Quality,
		Webp:              defaults.Webp,
	}
	if settings.Width == 0 {
		settings.Width = 1280
	}
	if settings.Height == 0 {
		settings.Height = 1280
	}
	if settings.Quality == 0 {
		settings.Quality = 80
	}

	if overrides.Width != nil {
		settings.Width = *overrides.Width
	}
	if overrides.Height != nil {
		settings.Height = *overrides.Height
	}
	if overrides.Quality != nil {
		settings.Quality = *overrides.Quality
	}
	if overrides.Webp != nil {
		settings.Webp = *overrides.Webp
	}

	o.settings = &settings
	return o, nil
}

// CurrentSettings exposes the resolved settings, nil before Settings ran.
func (o *Optimizer) CurrentSettings() *OptimizerSettings {
	return o.settings
}

// Optimize runs the derivative pipeline: resize, conditional WebP transcode,
// then result selection. It returns the winning output path, or "" when no
// derivative was produced, which is a legitimate outcome and not an error.
func (o *Optimizer) Optimize() (string, error) {
	if o.settings == nil || !strings.HasPrefix(o.settings.Mime, "image/") {
		return "", ErrFormatNotSupported
	}

	if err := o.createFolders(); err != nil {
		return "", err
	}
	if err := o.resize(); err != nil {
		o.discardScratch()
		return "", err
	}
	if err := o.convertToWebp(); err != nil {
		o.discardScratch()
		return "", err
	}

	resized := o.settings.ResizedOutputPath
	converted := o.settings.WebpOutputPath

	// The WebP output supersedes the resized copy: keep at most one
	// materialized derivative.
	if fileExists(converted) {
		if fileExists(resized) {
			os.Remove(resized)
		}
		return converted, nil
	}
	if fileExists(resized) {
		return resized, nil
	}
	return "", nil
}

// discardScratch removes both candidate outputs. Error exits run this so a
// failed stage never strands a scratch file behind the swallowing caller.
func (o *Optimizer) discardScratch() {
	os.Remove(o.settings.ResizedOutputPath)
	os.Remove(o.settings.WebpOutputPath)
}

// createFolders makes sure the scratch directories exist. Idempotent.
func (o *Optimizer) createFolders() error {
	for _, path := range []string{o.settings.ResizedOutputPath, o.settings.WebpOutputPath} {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
	}
	return nil
}

// resize decodes the full source image, downscales it to fit within the
// configured bounds without ever upscaling, and writes it in the source
// format to the resized scratch path.
func (o *Optimizer) resize() error {
	data, err := o.fetch()
	if err != nil {
		return err
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode source image: %w", err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	scale := 1.0
	if sw := float64(o.settings.Width) / float64(w); sw < scale {
		scale = sw
	}
	if sh := float64(o.settings.Height) / float64(h); sh < scale {
		scale = sh
	}

	out := src
	if scale < 1.0 {
		newW := int(float64(w) * scale)
		newH := int(float64(h) * scale)
		dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		out = dst
	}

	return o.encode(out, o.settings.Mime, o.settings.ResizedOutputPath)
}

func (o *Optimizer) encode(img image.Image, mime, output string) error {
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()

	switch mime {
	case "image/jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: o.settings.Quality})
	case "image/png":
		err = png.Encode(f, img)
	case "image/gif":
		err = gif.Encode(f, img, nil)
	case "image/webp":
		err = webp.Encode(f, img, &webp.Options{Quality: float32(o.settings.Quality)})
	case "image/bmp":
		err = bmp.Encode(f, img)
	case "image/tiff":
		err = tiff.Encode(f, img, nil)
	default:
		err = fmt.Errorf("no encoder for %s", mime)
	}

	if err != nil {
		os.Remove(output)
		return fmt.Errorf("failed to encode %s: %w", mime, err)
	}
	return nil
}

// convertToWebp transcodes the resized output to WebP when the settings allow
// it and the source format is one of jpeg, gif or png. Formats with an alpha
// channel are promoted to true color so transparency survives the encode.
func (o *Optimizer) convertToWebp() error {
	resized := o.settings.ResizedOutputPath
	mime := o.settings.Mime

	if !fileExists(resized) {
		return nil
	}
	if !o.settings.Webp {
		return nil
	}
	if !webpSourceMimes[mime] {
		return nil
	}

	f, err := os.Open(resized)
	if err != nil {
		return err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("failed to decode resized image: %w", err)
	}

	// JPEG has no alpha path; png and gif keep their alpha channel.
	if mime != "image/jpeg" {
		rgba := image.NewNRGBA(img.Bounds())
		draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
		img = rgba
	}

	out, err := os.Create(o.settings.WebpOutputPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := webp.Encode(out, img, &webp.Options{Quality: float32(o.settings.Quality)}); err != nil {
		os.Remove(o.settings.WebpOutputPath)
		return fmt.Errorf("failed to encode webp: %w", err)
	}
	return nil
}

// fetch reads the source, either over http(s) or straight from disk. The
// bytes are cached so the probe and the resize share one read.
func (o *Optimizer) fetch() ([]byte, error) {
	if o.data != nil {
		return o.data, nil
	}

	if strings.HasPrefix(o.source, "http://") || strings.HasPrefix(o.source, "https://") {
		resp, err := o.client.Get(o.source)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, o.source)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		o.data = data
		return o.data, nil
	}

	data, err := os.ReadFile(o.source)
	if err != nil {
		return nil, err
	}
	o.data = data
	return o.data, nil
}

func mimeForFormat(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "bmp":
		return "image/bmp"
	case "tiff":
		return "image/tiff"
	default:
		return ""
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
