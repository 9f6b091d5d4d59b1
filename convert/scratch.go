package convert

import "os"

// Scratch allocates uniquely named temporary files and guarantees their
// removal. Operations defer Release for every path they allocate so the
// files are gone on every exit path.
type Scratch struct {
	dir string
}

// NewScratch returns a Scratch rooted at dir; an empty dir uses the system
// temp directory.
func NewScratch(dir string) *Scratch {
	return &Scratch{dir: dir}
}

// Allocate creates an empty scratch file with the given suffix and returns
// its path.
func (s *Scratch) Allocate(suffix string) (string, error) {
	f, err := os.CreateTemp(s.dir, "pixelcraft-*"+suffix)
	if err != nil {
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// Release removes a scratch file. Removal errors are swallowed; a missing
// file is not an error.
func (s *Scratch) Release(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}
