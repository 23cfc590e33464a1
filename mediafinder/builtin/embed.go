package builtin

import (
	"embed"
	"io/fs"
	"sort"
)

// FS contains the source definitions compiled into the binary.
//
//go:embed sources/*.cue
var FS embed.FS

// File is one embedded plugin file.
type File struct {
	Name string
	Data []byte
}

// Files returns the embedded plugin files sorted by name.
func Files() ([]File, error) {
	paths, err := fs.Glob(FS, "sources/*.cue")
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	files := make([]File, 0, len(paths))
	for _, p := range paths {
		data, err := FS.ReadFile(p)
		if err != nil {
			return nil, err
		}
		files = append(files, File{Name: p, Data: data})
	}
	return files, nil
}
