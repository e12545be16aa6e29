// Package pkg provides the core libraries for Watermark Pro.
//
// # Overview
//
// Watermark Pro tiles a repeating, rotated text watermark across an image and
// exports the result as a lossless PNG at the image's native resolution. The
// pkg directory is organized into three areas:
//
//  1. Geometry and painting ([tiling], [raster], [colorspec], [fonts])
//  2. Configuration and orchestration ([watermark], [pipeline], [session])
//  3. Support ([io], [errors], [observability], [buildinfo])
//
// # Architecture
//
// The data flow for one export:
//
//	encoded image bytes
//	         ↓
//	    [io] package (sniff + decode)
//	         ↓
//	    [tiling] package (anchor plan for the surface)
//	         ↓
//	    [raster] package (paint rotated text at every anchor)
//	         ↓
//	    [io] package (PNG encode, watermark-pro-<millis>.png)
//
// The preview takes the same path on a downscaled copy of the source and is
// redrawn on every configuration change.
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/watermarkpro/pkg/pipeline"
//	    "github.com/matzehuels/watermarkpro/pkg/watermark"
//	)
//
//	runner := pipeline.NewRunner(pipeline.Options{})
//	cfg := watermark.Default()
//	cfg.Text = "CONFIDENTIAL"
//
//	artifact, err := runner.Export(ctx, imageBytes, cfg)
//	os.WriteFile(artifact.Filename, artifact.PNG, 0o644)
//
// # Main Packages
//
// [tiling] - Anchor planning. Computes the lattice of instance centers that
// covers a surface under any rotation: a grid extended to the surface
// diagonal plus a margin, phased by the configured offset.
//
// [raster] - Drawing surfaces and the text painter. Each instance is painted
// with an isolated transform (translate to the anchor, rotate, draw centered
// text) so no state leaks between instances.
//
// [colorspec] - Color parsing. CSS strings and picker values resolve to one
// color type.
//
// [watermark] - The immutable configuration snapshot and its validation.
//
// [pipeline] - Preview and export orchestration, including the scale policy
// that maps preview lengths onto the native-resolution export.
//
// [session] - Composer state: the selected image, the current configuration,
// the live preview and the single-flight export guard with its notifications.
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/tiling/...             # Specific package
//
// [tiling]: https://pkg.go.dev/github.com/matzehuels/watermarkpro/pkg/tiling
// [raster]: https://pkg.go.dev/github.com/matzehuels/watermarkpro/pkg/raster
// [colorspec]: https://pkg.go.dev/github.com/matzehuels/watermarkpro/pkg/colorspec
// [fonts]: https://pkg.go.dev/github.com/matzehuels/watermarkpro/pkg/fonts
// [watermark]: https://pkg.go.dev/github.com/matzehuels/watermarkpro/pkg/watermark
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/watermarkpro/pkg/pipeline
// [session]: https://pkg.go.dev/github.com/matzehuels/watermarkpro/pkg/session
// [io]: https://pkg.go.dev/github.com/matzehuels/watermarkpro/pkg/io
// [errors]: https://pkg.go.dev/github.com/matzehuels/watermarkpro/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/watermarkpro/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/watermarkpro/pkg/buildinfo
package pkg
