// Package imaging renders filtered versions of stored image payloads.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strconv"
	"strings"

	"github.com/disintegration/gift"
)

const (
	MaxImageWidth  = 4000
	MaxImageHeight = 4000
	JPEGQuality    = 90
	MaxBlurRadius  = 50
	MaxBrightness  = 100
	MaxContrast    = 100
	MaxSaturation  = 200
	MaxPixelate    = 50
)

// filterOrder is the order filters are applied in, whatever the order of
// the query parameters.
var filterOrder = []string{
	"crop_to_size",
	"resize",
	"rotate",
	"brightness_increase",
	"brightness_decrease",
	"contrast_increase",
	"contrast_decrease",
	"saturation_increase",
	"saturation_decrease",
	"gaussian_blur",
	"pixelate",
	"grayscale",
	"invert",
}

var ErrTooLarge = errors.New("image too large")

type FilterError struct {
	FilterName string
	Message    string
}

func (e FilterError) Error() string {
	return fmt.Sprintf("filter '%s': %s", e.FilterName, e.Message)
}

// Requested reports whether params names any supported filter.
func Requested(params map[string]string) bool {
	for _, name := range filterOrder {
		if _, ok := params[name]; ok {
			return true
		}
	}
	return false
}

// ParseFilters builds the filter chain named by params. Unknown parameters
// are ignored.
func ParseFilters(params map[string]string) ([]gift.Filter, error) {
	var filters []gift.Filter
	for _, name := range filterOrder {
		param, ok := params[name]
		if !ok {
			continue
		}
		filter, err := createFilter(name, param)
		if err != nil {
			return nil, err
		}
		filters = append(filters, filter)
	}

	if len(filters) == 0 {
		return nil, fmt.Errorf("no valid filters specified")
	}
	return filters, nil
}

// Render decodes payload, applies filters and encodes the result in the
// payload's own format. It returns the encoded bytes and their mime type.
func Render(payload []byte, filters []gift.Filter) ([]byte, string, error) {
	// Oversized sources are rejected from the header alone.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(payload))
	if err != nil {
		return nil, "", fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width > MaxImageWidth || cfg.Height > MaxImageHeight {
		return nil, "", fmt.Errorf("%w: %dx%d (max %dx%d)", ErrTooLarge, cfg.Width, cfg.Height, MaxImageWidth, MaxImageHeight)
	}

	src, format, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}

	g := gift.New(filters...)
	dst := image.NewRGBA(g.Bounds(src.Bounds()))
	g.Draw(dst, src)

	var buf bytes.Buffer
	switch format {
	case "png":
		err = png.Encode(&buf, dst)
	default:
		format = "jpeg"
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: JPEGQuality})
	}
	if err != nil {
		return nil, "", fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), "image/" + format, nil
}

func parseIntParam(param, paramName string) (int, error) {
	if param == "" {
		return 0, fmt.Errorf("%s parameter is required", paramName)
	}

	value, err := strconv.Atoi(param)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: must be an integer", paramName)
	}
	if value < 0 {
		return 0, fmt.Errorf("%s must be positive", paramName)
	}
	return value, nil
}

func parseFloatParam(param, paramName string, min, max float32) (float32, error) {
	if param == "" {
		return 0, fmt.Errorf("%s parameter is required", paramName)
	}

	value, err := strconv.ParseFloat(param, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: must be a number", paramName)
	}

	floatVal := float32(value)
	if floatVal < min || floatVal > max {
		return 0, fmt.Errorf("%s must be between %.1f and %.1f", paramName, min, max)
	}
	return floatVal, nil
}

// parseDimensions reads "WIDTHxHEIGHT". A zero side keeps the aspect ratio
// when resizing.
func parseDimensions(param, filterName string) (int, int, error) {
	if param == "" {
		return 0, 0, FilterError{filterName, "dimensions parameter is required"}
	}

	parts := strings.Split(param, "x")
	if len(parts) != 2 {
		return 0, 0, FilterError{filterName, "dimensions must be in format 'widthxheight'"}
	}

	width, err := parseIntParam(parts[0], "width")
	if err != nil {
		return 0, 0, FilterError{filterName, err.Error()}
	}
	height, err := parseIntParam(parts[1], "height")
	if err != nil {
		return 0, 0, FilterError{filterName, err.Error()}
	}

	if width == 0 && height == 0 {
		return 0, 0, FilterError{filterName, "width and height cannot both be zero"}
	}
	if width > MaxImageWidth || height > MaxImageHeight {
		return 0, 0, FilterError{filterName, fmt.Sprintf("dimensions too large (max %dx%d)", MaxImageWidth, MaxImageHeight)}
	}
	return width, height, nil
}

func createFilter(filterName, param string) (gift.Filter, error) {
	switch filterName {
	case "resize":
		width, height, err := parseDimensions(param, filterName)
		if err != nil {
			return nil, err
		}
		return gift.Resize(width, height, gift.LanczosResampling), nil

	case "crop_to_size":
		width, height, err := parseDimensions(param, filterName)
		if err != nil {
			return nil, err
		}
		if width == 0 || height == 0 {
			return nil, FilterError{filterName, "width and height must both be set"}
		}
		return gift.CropToSize(width, height, gift.CenterAnchor), nil

	case "rotate":
		degree, err := parseFloatParam(param, "rotation angle", -360, 360)
		if err != nil {
			return nil, FilterError{filterName, err.Error()}
		}
		return gift.Rotate(degree, color.Transparent, gift.CubicInterpolation), nil

	case "brightness_increase", "brightness_decrease":
		value, err := parseFloatParam(param, "brightness", 0, MaxBrightness)
		if err != nil {
			return nil, FilterError{filterName, err.Error()}
		}
		return gift.Brightness(signed(filterName, value)), nil

	case "contrast_increase", "contrast_decrease":
		value, err := parseFloatParam(param, "contrast", 0, MaxContrast)
		if err != nil {
			return nil, FilterError{filterName, err.Error()}
		}
		return gift.Contrast(signed(filterName, value)), nil

	case "saturation_increase", "saturation_decrease":
		value, err := parseFloatParam(param, "saturation", 0, MaxSaturation)
		if err != nil {
			return nil, FilterError{filterName, err.Error()}
		}
		return gift.Saturation(signed(filterName, value)), nil

	case "gaussian_blur":
		value, err := parseFloatParam(param, "blur radius", 0.1, MaxBlurRadius)
		if err != nil {
			return nil, FilterError{filterName, err.Error()}
		}
		return gift.GaussianBlur(value), nil

	case "pixelate":
		value, err := parseIntParam(param, "pixelate size")
		if err != nil {
			return nil, FilterError{filterName, err.Error()}
		}
		if value > MaxPixelate {
			return nil, FilterError{filterName, fmt.Sprintf("pixelate size too large (max %d)", MaxPixelate)}
		}
		return gift.Pixelate(value), nil

	case "grayscale":
		return gift.Grayscale(), nil

	case "invert":
		return gift.Invert(), nil

	default:
		return nil, FilterError{filterName, "unsupported filter"}
	}
}

func signed(filterName string, value float32) float32 {
	if strings.HasSuffix(filterName, "_decrease") {
		return -value
	}
	return value
}
