package browser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// State of a Finder. Browsing is the only state accepting transitions.
type State uint8

const (
	Browsing State = iota
	Selected
	Quit
)

func (s State) String() string {
	return [...]string{"Browsing", "Selected", "Quit"}[s]
}

var (
	ErrQuit          = errors.New("no file selected")
	ErrNotSelectable = errors.New("entry is not selectable")
	ErrFinished      = errors.New("finder is no longer browsing")
	ErrBrowsing      = errors.New("finder is still browsing")
)

type Entry struct {
	Name string
	Path string
	Dir  bool
}

// Finder walks a directory tree looking for a file with a given
// extension. Listings show sub directories and matching files only.
type Finder struct {
	dir      string
	ext      string
	entries  []Entry
	state    State
	selected string
}

func NewFinder(dir, ext string) (f *Finder, err error) {
	if dir, err = filepath.Abs(dir); err != nil {
		return
	}
	f = &Finder{ext: ext}
	if err = f.load(dir); err != nil {
		return nil, err
	}
	return
}

func (f *Finder) load(dir string) (err error) {
	var list []os.DirEntry
	if list, err = os.ReadDir(dir); err != nil {
		return
	}
	entries := make([]Entry, 0, len(list))
	for _, de := range list {
		if !de.IsDir() && filepath.Ext(de.Name()) != f.ext {
			continue
		}
		entries = append(entries, Entry{
			Name: de.Name(),
			Path: filepath.Join(dir, de.Name()),
			Dir:  de.IsDir(),
		})
	}
	f.dir, f.entries = dir, entries
	return
}

func (f *Finder) Dir() string { return f.dir }
func (f *Finder) Entries() []Entry { return f.entries }
func (f *Finder) State() State { return f.state }
func (f *Finder) Selected() string { return f.selected }
func (f *Finder) Done() bool { return f.state != Browsing }
func (f *Finder) Extension() string { return f.ext }
func (f *Finder) AtRoot() bool { return filepath.Dir(f.dir) == f.dir }

// Up moves to the parent directory. At the root it stays in place.
func (f *Finder) Up() error {
	if f.Done() {
		return ErrFinished
	}
	return f.load(filepath.Dir(f.dir))
}

// Select enters the i-th directory entry or selects the i-th file
func (f *Finder) Select(i int) error {
	if f.Done() {
		return ErrFinished
	}
	if i < 0 || i >= len(f.entries) {
		return fmt.Errorf("entry %d of %d: %w", i, len(f.entries), ErrNotSelectable)
	}
	e := f.entries[i]
	if e.Dir {
		return f.load(e.Path)
	}
	if filepath.Ext(e.Name) != f.ext {
		return fmt.Errorf("%s: %w", e.Name, ErrNotSelectable)
	}
	f.state = Selected
	f.selected = e.Path
	return nil
}

func (f *Finder) Quit() {
	if !f.Done() {
		f.state = Quit
	}
}

// Result is the selected path, or ErrQuit when browsing was abandoned
func (f *Finder) Result() (string, error) {
	switch f.state {
	case Selected:
		return f.selected, nil
	case Quit:
		return "", ErrQuit
	}
	return "", ErrBrowsing
}
