package ocr

import (
	"image"

	"github.com/disintegration/imaging"
)

// Preprocessor 识别前的图像预处理步骤
type Preprocessor interface {
	Process(img image.Image) (image.Image, error)
}

// DefaultPreprocessors 构建扫描件 OCR 的默认预处理流水线
func DefaultPreprocessors() []Preprocessor {
	return []Preprocessor{
		NewGrayscaleProcessor(),
		NewContrastProcessor(15),
		NewSharpenProcessor(0.5),
	}
}

type GrayscaleProcessor struct{}

func NewGrayscaleProcessor() *GrayscaleProcessor {
	return &GrayscaleProcessor{}
}

func (p *GrayscaleProcessor) Process(img image.Image) (image.Image, error) {
	return imaging.Grayscale(img), nil
}

type ContrastProcessor struct {
	amount float64
}

func NewContrastProcessor(amount float64) *ContrastProcessor {
	return &ContrastProcessor{amount: amount}
}

func (p *ContrastProcessor) Process(img image.Image) (image.Image, error) {
	return imaging.AdjustContrast(img, p.amount), nil
}

type SharpenProcessor struct {
	sigma float64
}

func NewSharpenProcessor(sigma float64) *SharpenProcessor {
	return &SharpenProcessor{sigma: sigma}
}

func (p *SharpenProcessor) Process(img image.Image) (image.Image, error) {
	return imaging.Sharpen(img, p.sigma), nil
}
