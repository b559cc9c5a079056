package intake

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/kozaktomas/face-compare/internal/constants"
	"golang.org/x/sync/errgroup"
)

// imageExtensions lists the extensions picked up when expanding directories.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
	".bmp":  true,
	".heic": true,
	".heif": true,
}

// isImageFile checks if a file has a supported image extension
func isImageFile(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// CollectImagePaths expands the given paths into a list of files. Plain files
// are kept as given, in order, whatever their extension so that validation can
// reject them. Directories contribute their image files, sorted by name.
func CollectImagePaths(paths []string, recursive bool) ([]string, error) {
	var filePaths []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", p, err)
		}
		if !info.IsDir() {
			filePaths = append(filePaths, p)
			continue
		}

		if recursive {
			err := filepath.WalkDir(p, func(path string, d os.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() && isImageFile(d.Name()) {
					filePaths = append(filePaths, path)
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("cannot walk folder %s: %w", p, err)
			}
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("cannot read folder %s: %w", p, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() && isImageFile(entry.Name()) {
				filePaths = append(filePaths, filepath.Join(p, entry.Name()))
			}
		}
	}
	return filePaths, nil
}

// LoadFile reads an image from disk. The media type is detected from the file
// content. Files above the size limit are returned without payload since they
// can never be accepted.
func LoadFile(path string) (*ImageFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	file, err := os.Open(path) //nolint:gosec // user-provided file path
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer file.Close()

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		return nil, fmt.Errorf("could not detect media type of %s: %w", path, err)
	}

	f := &ImageFile{
		Name:      filepath.Base(path),
		MediaType: mtype.String(),
		Size:      info.Size(),
	}
	if f.Size > constants.MaxFileSize {
		return f, nil
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("could not rewind file: %w", err)
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("could not read file: %w", err)
	}
	f.Data = data
	f.Size = int64(len(data))
	return f, nil
}

// LoadFiles reads files in parallel and returns them in the order given.
func LoadFiles(ctx context.Context, paths []string) ([]*ImageFile, error) {
	files := make([]*ImageFile, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(constants.FileLoadConcurrency)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := LoadFile(path)
			if err != nil {
				return fmt.Errorf("loading %s: %w", path, err)
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// FromMultipart builds an ImageFile from an uploaded form part. The declared
// Content-Type of the part is trusted the way a browser file picker reports
// it; content sniffing is only used when the part has no usable type.
func FromMultipart(fh *multipart.FileHeader) (*ImageFile, error) {
	f := &ImageFile{
		Name:      filepath.Base(fh.Filename),
		MediaType: fh.Header.Get("Content-Type"),
		Size:      fh.Size,
	}
	if f.Size > constants.MaxFileSize {
		return f, nil
	}

	file, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %s", fh.Filename)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %s", fh.Filename)
	}
	f.Data = data
	f.Size = int64(len(data))

	if f.MediaType == "" || f.MediaType == "application/octet-stream" {
		f.MediaType = mimetype.Detect(data).String()
	}
	return f, nil
}
