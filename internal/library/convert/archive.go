package convert

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/nwaples/rardecode/v2"
)

// repack copies every file of the RAR archive at cbrPath into a ZIP written
// to w. Entries are stored, not deflated. It returns the number of entries
// written.
func repack(ctx context.Context, cbrPath string, w io.Writer) (int, error) {
	rc, err := rardecode.OpenReader(cbrPath)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBadArchive, err)
	}
	defer rc.Close()

	zw := zip.NewWriter(w)
	pages := 0
	for {
		if err := ctx.Err(); err != nil {
			return pages, err
		}

		hdr, err := rc.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return pages, fmt.Errorf("%w: %w", ErrBadArchive, err)
		}
		if hdr.IsDir {
			continue
		}
		name, ok := entryName(hdr.Name)
		if !ok {
			continue
		}

		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Store,
			Modified: hdr.ModificationTime,
		})
		if err != nil {
			return pages, err
		}
		if _, err := io.Copy(fw, rc); err != nil {
			return pages, fmt.Errorf("%w: %s: %w", ErrBadArchive, name, err)
		}
		pages++
	}

	if pages == 0 {
		return 0, ErrEmptyArchive
	}
	return pages, zw.Close()
}

// entryName turns a RAR entry name into a relative slash path clamped to the
// archive root. Names that clean to nothing are rejected.
func entryName(name string) (string, bool) {
	name = strings.ReplaceAll(name, `\`, "/")
	name = strings.TrimLeft(path.Clean("/"+name), "/")
	if name == "" || name == "." {
		return "", false
	}
	return name, true
}
