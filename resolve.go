package imgfs

import (
	"fmt"
	"strings"

	"imgfs/internal/dirstore"
	"imgfs/internal/fserr"
)

// validatePath rejects the empty-path sentinel (the root container,
// internal-only per the design notes) and anything not starting with "/"
// from ever reaching a public method.
func validatePath(path string) error {
	if path == "" || !strings.HasPrefix(path, "/") {
		return fmt.Errorf("imgfs: path %q must be absolute", path)
	}
	return nil
}

// parentPath returns path's parent, or "" if path is the root (the
// sentinel meaning "the root container", which holds the root's own
// entry).
func parentPath(path string) string {
	if path == "/" {
		return ""
	}
	idx := strings.LastIndex(path, "/")
	if parent := path[:idx]; parent != "" {
		return parent
	}
	return "/"
}

// name returns the final path component: "/" for the root itself,
// otherwise the basename.
func name(path string) string {
	if path == "/" {
		return "/"
	}
	return path[strings.LastIndex(path, "/")+1:]
}

// joinPath appends name to parent, where parent is either "" (the root
// container, yielding name itself — used only to form "/" from its single
// entry), "/", or an already-joined path.
func joinPath(parent, nm string) string {
	switch parent {
	case "":
		return nm
	case "/":
		return "/" + nm
	default:
		return parent + "/" + nm
	}
}

// resolve walks path component by component from the root container,
// returning the firstBlock/size pair describing the entry it names and
// whether that entry is a directory. path == "" denotes the root container
// itself.
func (e *Engine) resolve(path string) (first int16, size int16, isDir bool, err error) {
	first = int16(e.io.DataAddress())
	size = e.sb.RootDirectoryEntrySize
	isDir = true

	if path == "" {
		return first, size, true, nil
	}
	if err := validatePath(path); err != nil {
		return 0, 0, false, err
	}

	comps := []string{"/"}
	if rest := path[1:]; rest != "" {
		comps = append(comps, strings.Split(rest, "/")...)
	}

	fileFound := false
	curPath := ""
	for _, c := range comps {
		if fileFound {
			return 0, 0, false, fserr.New(fserr.NotADirectory, curPath)
		}
		curPath = joinPath(curPath, c)

		entries, rerr := e.dirs.ReadChain(first, size)
		if rerr != nil {
			return 0, 0, false, wrapIO(curPath, rerr)
		}

		found := false
		for _, en := range entries {
			if en.Name == c {
				found = true
				first = en.FirstBlockAddress
				size = en.Size
				isDir = en.IsDirectory
				if !isDir {
					fileFound = true
				}
				break
			}
		}
		if !found {
			return 0, 0, false, fserr.New(fserr.NoSuchFileOrDirectory, curPath)
		}
	}
	return first, size, isDir, nil
}

// readDirectoryEntries returns the ordered entries of the directory at
// path ("" for the root container).
func (e *Engine) readDirectoryEntries(path string) ([]dirstore.Entry, error) {
	first, size, isDir, err := e.resolve(path)
	if err != nil {
		return nil, err
	}
	if !isDir {
		return nil, fserr.New(fserr.NotADirectory, path)
	}
	entries, err := e.dirs.ReadChain(first, size)
	if err != nil {
		return nil, wrapIO(path, err)
	}
	return entries, nil
}

// readDirectoryEntry returns path's own directory entry as recorded in its
// parent (or the root container, for path == "/").
func (e *Engine) readDirectoryEntry(path string) (dirstore.Entry, error) {
	parent := parentPath(path)
	nm := name(path)

	entries, err := e.readDirectoryEntries(parent)
	if err != nil {
		return dirstore.Entry{}, err
	}
	for _, en := range entries {
		if en.Name == nm {
			return en, nil
		}
	}
	return dirstore.Entry{}, fserr.New(fserr.NoSuchFileOrDirectory, path)
}

// writeDirectoryEntry replaces path's entry in its parent with updated and
// rewrites the parent (without bumping its lastModified).
func (e *Engine) writeDirectoryEntry(path string, updated dirstore.Entry) error {
	parent := parentPath(path)
	nm := name(path)

	entries, err := e.readDirectoryEntries(parent)
	if err != nil {
		return err
	}
	for i := range entries {
		if entries[i].Name == nm {
			entries[i] = updated
			_, err := e.writeDirectoryEntries(parent, entries, false)
			return err
		}
	}
	return fserr.New(fserr.NoSuchFileOrDirectory, path)
}

// writeDirectoryEntries serializes entries and writes them to the
// directory at path ("" for the root container), then propagates the
// resulting size/firstBlock up to path's own entry in its parent — and so
// on toward the root — stopping as soon as a level finds nothing changed
// and updateMtime is false.
func (e *Engine) writeDirectoryEntries(path string, entries []dirstore.Entry, updateMtime bool) (int16, error) {
	var currentFirst int16
	var own dirstore.Entry

	if path == "" {
		currentFirst = int16(e.io.DataAddress())
	} else {
		entry, err := e.readDirectoryEntry(path)
		if err != nil {
			return 0, err
		}
		if !entry.IsDirectory {
			return 0, fserr.New(fserr.NotADirectory, path)
		}
		currentFirst = entry.FirstBlockAddress
		own = entry
	}

	newFirst, newSize, err := e.dirs.WriteChain(currentFirst, entries)
	if err != nil {
		return 0, wrapIO(path, err)
	}

	if path == "" {
		e.sb.RootDirectoryEntrySize = newSize
		if err := e.sb.Write(e.dev); err != nil {
			return 0, wrapIO(path, err)
		}
		return newSize, nil
	}

	updated := false
	if own.Size != newSize || own.FirstBlockAddress != newFirst {
		own.Size = newSize
		own.FirstBlockAddress = newFirst
		updated = true
	}
	if updateMtime {
		own.LastModified = nowNano()
		updated = true
	}
	if updated {
		if err := e.writeDirectoryEntry(path, own); err != nil {
			return 0, err
		}
	}
	return newSize, nil
}
