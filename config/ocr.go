package config

import (
	"strings"
	"sync"
	"time"
)

var (
	ocrOnce   sync.Once
	ocrConfig *OCRConfig
)

// OCRConfig OCR 引擎配置
type OCRConfig struct {
	Engine     string        // "tesseract" 或 "textract"
	Languages  []string      // tesseract 语言包，例如 fra+eng
	Timeout    time.Duration // 单次提取的超时时间
	Preprocess bool          // 是否在识别前做图像预处理
}

func GetOCRConfig() *OCRConfig {
	ocrOnce.Do(func() {
		loadEnv()

		timeout, err := time.ParseDuration(getenv("OCR_TIMEOUT", "60s"))
		if err != nil {
			timeout = 60 * time.Second
		}

		ocrConfig = &OCRConfig{
			Engine:     getenv("OCR_ENGINE", "tesseract"),
			Languages:  strings.Split(getenv("OCR_LANGUAGES", "fra+eng"), "+"),
			Timeout:    timeout,
			Preprocess: getenv("OCR_PREPROCESS", "true") == "true",
		}
	})
	return ocrConfig
}
