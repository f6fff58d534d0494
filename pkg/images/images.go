// Package images готовит изображения для vision-запросов.
//
// Модели принимают картинки либо по URL, либо как base64 data-URI с
// лимитом на размер, поэтому перед отправкой изображение ужимается.
package images

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // Регистрируем PNG декодер

	"github.com/nfnt/resize"
)

// DefaultQuality — качество JPEG при перекодировании.
const DefaultQuality = 85

// Resize ресайзит изображение до указанной ширины, сохраняя пропорции.
//
// Параметры:
//   - data: байты исходного изображения (JPEG, PNG)
//   - maxWidth: целевая ширина в пикселях. Если 0 или меньше исходной ширины — ресайз не применяется.
//   - quality: качество JPEG при кодировании (1-100).
//
// Возвращает байты JPEG изображения.
func Resize(data []byte, maxWidth int, quality int) ([]byte, error) {
	// 1. Декодируем изображение
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	originalBounds := img.Bounds()
	originalWidth := originalBounds.Dx()

	// 2. Проверяем нужен ли ресайз
	if maxWidth <= 0 || originalWidth <= maxWidth {
		// Ресайз не нужен, но конвертируем в JPEG для консистентности
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("encode to jpeg: %w", err)
		}
		return buf.Bytes(), nil
	}

	// 3. Вычисляем новую высоту сохраняя aspect ratio
	aspectRatio := float64(originalBounds.Dy()) / float64(originalWidth)
	newHeight := uint(float64(maxWidth) * aspectRatio)

	// 4. Ресайзим используя Lanczos3 (качественный алгоритм)
	resized := resize.Resize(uint(maxWidth), newHeight, img, resize.Lanczos3)

	// 5. Кодируем в JPEG
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode resized image: %w", err)
	}

	return buf.Bytes(), nil
}

// DataURI кодирует JPEG-байты в base64 data-URI для vision API.
func DataURI(jpegData []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpegData)
}

// PrepareForVision ужимает изображение и возвращает data-URI.
func PrepareForVision(data []byte, maxWidth int) (string, error) {
	out, err := Resize(data, maxWidth, DefaultQuality)
	if err != nil {
		return "", err
	}
	return DataURI(out), nil
}
