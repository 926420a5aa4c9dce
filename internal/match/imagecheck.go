package match

import (
	"bytes"
	"fmt"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// ImagePolicy describes the print-quality expectations for a card photo.
// Violations are advisory warnings; a low-resolution photo still matches.
type ImagePolicy struct {
	MinWidth  int
	MinHeight int
	MinAspect float64
	MaxAspect float64
}

// DefaultPolicy suits a portrait ID-card photo slot.
func DefaultPolicy() ImagePolicy {
	return ImagePolicy{
		MinWidth:  240,
		MinHeight: 320,
		MinAspect: 0.5,
		MaxAspect: 1.0,
	}
}

func (p ImagePolicy) isZero() bool {
	return p == ImagePolicy{}
}

// checkImage decodes the image header and evaluates it against the policy.
// A decode failure is an error (the file is not usable as a photo); policy
// violations come back as warnings.
func checkImage(data []byte, policy ImagePolicy) ([]string, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	var warnings []string
	if cfg.Width < policy.MinWidth || cfg.Height < policy.MinHeight {
		warnings = append(warnings, fmt.Sprintf(
			"image is %dx%d, below the recommended minimum %dx%d",
			cfg.Width, cfg.Height, policy.MinWidth, policy.MinHeight))
	}
	if cfg.Height > 0 {
		aspect := float64(cfg.Width) / float64(cfg.Height)
		if aspect < policy.MinAspect || aspect > policy.MaxAspect {
			warnings = append(warnings, fmt.Sprintf(
				"image aspect ratio %.2f is outside the portrait range %.2f-%.2f",
				aspect, policy.MinAspect, policy.MaxAspect))
		}
	}
	return warnings, nil
}
