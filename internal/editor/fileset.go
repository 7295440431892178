package editor

import (
	"fmt"
	"sort"
	"strings"
)

// FileSet is the in-memory file mapping of one open project: file name to
// text content, plus the active-file pointer the UI edits against.
//
// Invariant after every operation: the active pointer is either empty or a
// key of the map. Insertion order is tracked for display and for picking a
// replacement active file after a delete; nothing else depends on it.
//
// FileSet is not safe for concurrent use; Session serializes access.
type FileSet struct {
	entries map[string]string
	order   []string
	active  string
}

// NewFileSet builds a file set from a stored files map. Names are inserted
// in sorted order so two loads of the same project display identically.
// The active pointer starts on the first file, if any.
func NewFileSet(files map[string]string) *FileSet {
	fs := &FileSet{entries: make(map[string]string, len(files))}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fs.entries[name] = files[name]
		fs.order = append(fs.order, name)
	}
	if len(fs.order) > 0 {
		fs.active = fs.order[0]
	}
	return fs
}

// Len returns the number of files.
func (fs *FileSet) Len() int { return len(fs.entries) }

// Active returns the current active file name, or "" when the set is empty.
func (fs *FileSet) Active() string { return fs.active }

// Names returns file names in insertion order.
func (fs *FileSet) Names() []string {
	out := make([]string, len(fs.order))
	copy(out, fs.order)
	return out
}

// Files returns a copy of the name → content map.
func (fs *FileSet) Files() map[string]string {
	out := make(map[string]string, len(fs.entries))
	for name, content := range fs.entries {
		out[name] = content
	}
	return out
}

// Get returns the content of a file and whether it exists.
func (fs *FileSet) Get(name string) (string, bool) {
	content, ok := fs.entries[name]
	return content, ok
}

// Open moves the active pointer to an existing file.
func (fs *FileSet) Open(name string) error {
	if _, ok := fs.entries[name]; !ok {
		return fmt.Errorf("%w: %q", ErrFileNotFound, name)
	}
	fs.active = name
	return nil
}

// Create inserts a new file and makes it the active one.
func (fs *FileSet) Create(name, content string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if _, ok := fs.entries[name]; ok {
		return fmt.Errorf("%w: %q already exists", ErrInvalidName, name)
	}

	fs.entries[name] = content
	fs.order = append(fs.order, name)
	fs.active = name
	return nil
}

// Update replaces the content of an existing file. Updating a name that is
// not present is rejected with ErrFileNotFound; creation is explicit via
// Create, never implied.
func (fs *FileSet) Update(name, content string) error {
	if _, ok := fs.entries[name]; !ok {
		return fmt.Errorf("%w: %q", ErrFileNotFound, name)
	}
	fs.entries[name] = content
	return nil
}

// Rename moves the content of oldName to newName. Renaming a file to its own
// name is a no-op. The active pointer follows the renamed file.
func (fs *FileSet) Rename(oldName, newName string) error {
	if oldName == newName {
		return nil
	}
	if _, ok := fs.entries[oldName]; !ok {
		return fmt.Errorf("%w: %q", ErrFileNotFound, oldName)
	}
	if err := validateName(newName); err != nil {
		return err
	}
	if _, ok := fs.entries[newName]; ok {
		return fmt.Errorf("%w: %q already exists", ErrInvalidName, newName)
	}

	fs.entries[newName] = fs.entries[oldName]
	delete(fs.entries, oldName)
	for i, n := range fs.order {
		if n == oldName {
			fs.order[i] = newName
			break
		}
	}
	if fs.active == oldName {
		fs.active = newName
	}
	return nil
}

// Delete removes a file. Deleting an absent name is a no-op. When the active
// file is deleted the pointer falls back to the first remaining file by
// insertion order, or "" if the set is now empty.
func (fs *FileSet) Delete(name string) {
	if _, ok := fs.entries[name]; !ok {
		return
	}

	delete(fs.entries, name)
	for i, n := range fs.order {
		if n == name {
			fs.order = append(fs.order[:i], fs.order[i+1:]...)
			break
		}
	}
	if fs.active == name {
		if len(fs.order) > 0 {
			fs.active = fs.order[0]
		} else {
			fs.active = ""
		}
	}
}

func validateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	}
	if trimmed != name {
		return fmt.Errorf("%w: %q has leading or trailing whitespace", ErrInvalidName, name)
	}
	// A file name needs an extension; a leading dot alone does not count.
	if i := strings.LastIndex(name, "."); i <= 0 || i == len(name)-1 {
		return fmt.Errorf("%w: %q is missing an extension", ErrInvalidName, name)
	}
	return nil
}
