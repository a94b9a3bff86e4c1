package convert

import "errors"

var (
	ErrPathRequired = errors.New("path is required")
	ErrDirNotFound  = errors.New("directory not found")
	ErrNoFiles      = errors.New("no files selected")
	ErrNotCBR       = errors.New("CBR file not found")
	ErrUnsafePath   = errors.New("path is outside the library")
	ErrTargetExists = errors.New("target already exists")
	ErrBadArchive   = errors.New("unreadable RAR archive")
	ErrEmptyArchive = errors.New("archive holds no files")
)

// CBRFile is one RAR comic found by Scan.
type CBRFile struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	SizeHuman string `json:"sizeHuman"`
	Tome      *int   `json:"tome"`
	// HasCBZ is set when a CBZ with the same stem sits next to the file.
	HasCBZ bool `json:"hasCbz"`
}

// Group gathers the CBR files of one folder.
type Group struct {
	Folder     string    `json:"folder"`
	SeriesName string    `json:"seriesName"`
	IsRoot     bool      `json:"isRoot"`
	Files      []CBRFile `json:"files"`
}

// ScanResult lists CBR files grouped by folder, in path order.
type ScanResult struct {
	Path   string  `json:"path"`
	Groups []Group `json:"groups"`
	Total  int     `json:"total"`
}

// Result reports the outcome for one archive.
type Result struct {
	Source      string `json:"source"`
	Destination string `json:"destination,omitempty"`
	Pages       int    `json:"pages,omitempty"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}

// Succeeded counts successful results.
func Succeeded(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Success {
			n++
		}
	}
	return n
}
