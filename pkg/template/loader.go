// loader.go — Load card.json files and .gscard (ZIP) bundles, and decode photos.
package template

import (
	"archive/zip"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// BundleExt is the extension of zipped card bundles.
const BundleExt = ".gscard"

// maxPhotoSide bounds decoded photos; larger ones are downscaled on load.
const maxPhotoSide = 2048

// LoadCard reads a card from a card.json file or a .gscard bundle. Bundles are
// extracted to a temp directory holding card.json, the photo and an optional
// fonts/ directory; the returned cleanup function removes it. Relative paths
// in the card are resolved against the file's directory.
func LoadCard(path string) (*CardSpec, []string, func(), error) {
	noop := func() {}

	if strings.EqualFold(filepath.Ext(path), BundleExt) {
		return loadBundle(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, noop, fmt.Errorf("read card: %w", err)
	}
	spec, warnings := ParseCard(data)
	resolveAssetPaths(spec, filepath.Dir(path))
	return spec, warnings, noop, nil
}

func loadBundle(path string) (*CardSpec, []string, func(), error) {
	noop := func() {}

	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, nil, noop, fmt.Errorf("open %s: %w", path, err)
	}
	defer r.Close()

	tmpDir, err := os.MkdirTemp("", "gscard-*")
	if err != nil {
		return nil, nil, noop, fmt.Errorf("create temp dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(tmpDir) }

	if err := extractZip(&r.Reader, tmpDir); err != nil {
		cleanup()
		return nil, nil, noop, fmt.Errorf("extract %s: %w", path, err)
	}

	data, err := os.ReadFile(filepath.Join(tmpDir, "card.json"))
	if err != nil {
		cleanup()
		return nil, nil, noop, fmt.Errorf("read card.json: %w", err)
	}

	spec, warnings := ParseCard(data)
	resolveAssetPaths(spec, tmpDir)
	return spec, warnings, cleanup, nil
}

// resolveAssetPaths makes the photo path absolute using baseDir.
func resolveAssetPaths(spec *CardSpec, baseDir string) {
	spec.Assets = baseDir
	if spec.Photo != "" && !filepath.IsAbs(spec.Photo) {
		spec.Photo = filepath.Join(baseDir, spec.Photo)
	}
}

// FontDir returns the bundle's fonts/ directory, or "" when there is none.
func (s *CardSpec) FontDir() string {
	if s.Assets == "" {
		return ""
	}
	dir := filepath.Join(s.Assets, "fonts")
	if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
		return dir
	}
	return ""
}

// LoadPhoto opens and decodes a photo file, honoring EXIF orientation.
func LoadPhoto(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open photo: %w", err)
	}
	return fitPhoto(img), nil
}

// DecodePhoto decodes an uploaded photo, honoring EXIF orientation.
func DecodePhoto(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode photo: %w", err)
	}
	return fitPhoto(img), nil
}

func fitPhoto(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() > maxPhotoSide || b.Dy() > maxPhotoSide {
		return imaging.Fit(img, maxPhotoSide, maxPhotoSide, imaging.Lanczos)
	}
	return img
}

// extractZip extracts all files from a zip reader into destDir.
func extractZip(r *zip.Reader, destDir string) error {
	for _, f := range r.File {
		target := filepath.Join(destDir, f.Name)

		// Guard against zip slip.
		if !strings.HasPrefix(filepath.Clean(target), filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("illegal path in zip: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}

		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

// extractFile writes a single zip entry to disk.
func extractFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}

// WriteBundle zips a card spec together with its photo and font files into a
// .gscard bundle at path.
func WriteBundle(path string, spec *CardSpec, photoPath string, fontFiles []string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create bundle: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	bundled := *spec
	bundled.Assets = ""
	if photoPath != "" {
		bundled.Photo = "photo" + strings.ToLower(filepath.Ext(photoPath))
		if err := addFile(zw, bundled.Photo, photoPath); err != nil {
			return err
		}
	}
	for _, f := range fontFiles {
		if err := addFile(zw, "fonts/"+filepath.Base(f), f); err != nil {
			return err
		}
	}

	data, err := MarshalCard(&bundled)
	if err != nil {
		return err
	}
	w, err := zw.Create("card.json")
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	return zw.Close()
}

func addFile(zw *zip.Writer, name, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("add %s: %w", src, err)
	}
	defer in.Close()
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, in)
	return err
}
