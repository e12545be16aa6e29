// Package io reads source images and writes exported watermark PNGs.
//
// # Import
//
// A selected file is accepted only if its content sniffs as an image MIME
// type ([Sniff]); anything else is an INVALID_INPUT error and the caller
// keeps its previous state. Accepted images are decoded with [Decode]:
//
//	mime, err := io.Sniff(data)
//	img, format, err := io.Decode(data)
//
// PNG, JPEG and GIF are decoded by the standard library; WebP, BMP and TIFF
// by golang.org/x/image. Decode failures are DECODE_FAILURE errors.
//
// Images can also be supplied as base64 data URLs ([DecodeDataURL]), the
// form a browser file reader hands over.
//
// # Export
//
// Exported artifacts are lossless PNGs ([EncodePNG]) named with
// [ExportFilename]:
//
//	watermark-pro-1700000000000.png
//
// [WriteFile] stores an artifact in a directory without overwriting an
// existing file.
package io
