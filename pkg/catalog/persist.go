package catalog

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	userDataFile = "user_data.dat"
	fileMetaFile = "file_metadata.dat"
)

// loadUsers reads one username per line from dir/user_data.dat. A missing
// file is not an error — a fresh NS starts with an empty user set.
func loadUsers(dir string) (map[string]*User, error) {
	users := make(map[string]*User)
	f, err := os.Open(filepath.Join(dir, userDataFile))
	if os.IsNotExist(err) {
		return users, nil
	}
	if err != nil {
		return nil, newErr(ErrUnknown, "loadUsers", "open %s: %w", userDataFile, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		users[name] = &User{Username: name, RegisteredAt: time.Now()}
	}
	if err := scanner.Err(); err != nil {
		return nil, newErr(ErrUnknown, "loadUsers", "scan %s: %w", userDataFile, err)
	}
	return users, nil
}

// saveUsers rewrites dir/user_data.dat in full — persistence is
// write-all-on-mutation per spec.md §6, with a temp-file-plus-rename noted
// there as a recommended future upgrade, not implemented here since the
// spec pins the current behavior as correct, not merely provisional.
func saveUsers(dir string, users map[string]*User) error {
	var b strings.Builder
	for name := range users {
		b.WriteString(name)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(filepath.Join(dir, userDataFile), []byte(b.String()), 0o644); err != nil {
		return newErr(ErrUnknown, "saveUsers", "write %s: %w", userDataFile, err)
	}
	return nil
}

// loadFiles reads file_metadata.dat: "filename;owner;ss_ip;ss_port[;user,perm]*"
// per spec.md §6. An entry referencing an SS not present in registeredSS is
// skipped entirely — not retained pending — matching the original loader's
// behavior exactly.
func loadFiles(dir string, registeredSS map[Endpoint]bool) (map[string]*FileMetadata, error) {
	files := make(map[string]*FileMetadata)
	f, err := os.Open(filepath.Join(dir, fileMetaFile))
	if os.IsNotExist(err) {
		return files, nil
	}
	if err != nil {
		return nil, newErr(ErrUnknown, "loadFiles", "open %s: %w", fileMetaFile, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fm, ep, err := parseFileMetaLine(line)
		if err != nil {
			return nil, newErr(ErrUnknown, "loadFiles", "%s line %d: %w", fileMetaFile, lineNo, err)
		}
		if !registeredSS[ep] {
			continue
		}
		files[fm.Filename] = fm
	}
	if err := scanner.Err(); err != nil {
		return nil, newErr(ErrUnknown, "loadFiles", "scan %s: %w", fileMetaFile, err)
	}
	return files, nil
}

func parseFileMetaLine(line string) (*FileMetadata, Endpoint, error) {
	parts := strings.Split(line, ";")
	if len(parts) < 4 {
		return nil, Endpoint{}, fmt.Errorf("expected at least 4 fields, got %d", len(parts))
	}
	port, err := strconv.Atoi(parts[3])
	if err != nil {
		return nil, Endpoint{}, fmt.Errorf("invalid ss_port %q: %w", parts[3], err)
	}
	ep := Endpoint{IP: parts[2], Port: port}
	fm := &FileMetadata{
		Filename: parts[0],
		Owner:    parts[1],
		SS:       ep,
	}
	for _, field := range parts[4:] {
		if field == "" {
			continue
		}
		up := strings.SplitN(field, ",", 2)
		if len(up) != 2 || len(up[1]) == 0 {
			return nil, Endpoint{}, fmt.Errorf("invalid access entry %q", field)
		}
		fm.AccessList = append(fm.AccessList, AccessEntry{
			Username:   up[0],
			Permission: Permission(up[1][0]),
		})
	}
	return fm, ep, nil
}

// saveFiles rewrites file_metadata.dat in full, owner's implicit W never
// written into the access-list fields (it is re-injected on load by virtue
// of never being persisted there in the first place).
func saveFiles(dir string, files map[string]*FileMetadata) error {
	var b strings.Builder
	for _, fm := range files {
		b.WriteString(fm.Filename)
		b.WriteByte(';')
		b.WriteString(fm.Owner)
		b.WriteByte(';')
		b.WriteString(fm.SS.IP)
		b.WriteByte(';')
		b.WriteString(strconv.Itoa(fm.SS.Port))
		for _, e := range fm.AccessList {
			b.WriteByte(';')
			b.WriteString(e.Username)
			b.WriteByte(',')
			b.WriteByte(byte(e.Permission))
		}
		b.WriteByte('\n')
	}
	if err := os.WriteFile(filepath.Join(dir, fileMetaFile), []byte(b.String()), 0o644); err != nil {
		return newErr(ErrUnknown, "saveFiles", "write %s: %w", fileMetaFile, err)
	}
	return nil
}
