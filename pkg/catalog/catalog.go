package catalog

import (
	"sync"
	"time"

	"github.com/langos-dfs/langos/internal/logger"
)

// Catalog is the Name Server's authoritative in-memory store, backed by
// user_data.dat and file_metadata.dat on disk. All exported methods are safe
// for concurrent use: a single coarse mutex guards the user registry, the SS
// registry, the file hash index, and the LRU cache together, matching
// spec.md §5's "one lock, or an ordered sublock chain" model — NS→SS network
// calls always happen outside this lock, in the nsserver handlers that call
// Catalog.
type Catalog struct {
	mu sync.Mutex

	dir string

	users map[string]*User

	servers      map[Endpoint]*StorageServer
	serverOrder  []Endpoint // registration order; head is the tie-break pick

	files *fileHashTable
	cache *lruCache

	metrics *catalogMetrics
}

// Open loads dir/user_data.dat and dir/file_metadata.dat into a new Catalog.
// Both files are optional; a missing file starts empty.
func Open(dir string) (*Catalog, error) {
	users, err := loadUsers(dir)
	if err != nil {
		return nil, err
	}
	// File rows reference SS endpoints, but the SS registry itself is
	// process-local (spec.md §3) and is rebuilt only as SSs re-register at
	// runtime — so at load time nothing is yet registered, and loadFiles
	// intentionally drops every row. ReattachServer re-attaches a given SS's
	// rows once nsserver's REGISTER_SS handler calls it.
	files, err := loadFiles(dir, map[Endpoint]bool{})
	if err != nil {
		return nil, err
	}

	c := &Catalog{
		dir:     dir,
		users:   users,
		servers: make(map[Endpoint]*StorageServer),
		files:   newFileHashTable(),
		cache:   newLRUCache(),
		metrics: newCatalogMetrics(),
	}
	for name, row := range files {
		c.files.insert(name, row)
	}
	c.metrics.setCatalogSize(c.files.count)
	return c, nil
}

func (c *Catalog) persistUsersLocked() error {
	return saveUsers(c.dir, c.users)
}

func (c *Catalog) persistFilesLocked() error {
	snapshot := make(map[string]*FileMetadata, c.files.count)
	for _, bucket := range c.files.buckets {
		for item := bucket; item != nil; item = item.next {
			snapshot[item.key] = item.value
		}
	}
	return saveFiles(c.dir, snapshot)
}

// RegisterUser creates username if new, or updates its last-known address in
// place if it already exists — idempotent per spec.md §3.
func (c *Catalog) RegisterUser(username, address string) (*User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	u, ok := c.users[username]
	if !ok {
		u = &User{Username: username, RegisteredAt: time.Now()}
		c.users[username] = u
	}
	u.LastAddress = address
	if err := c.persistUsersLocked(); err != nil {
		return nil, err
	}
	logger.Debug("user registered", "user", username, "address", address, "new", !ok)
	return u, nil
}

func (c *Catalog) UserExists(username string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.users[username]
	return ok
}

// ListUsernames returns all registered usernames in no particular order —
// callers that need a stable order sort it.
func (c *Catalog) ListUsernames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.users))
	for name := range c.users {
		out = append(out, name)
	}
	return out
}

// RegisterSS adds or idempotently refreshes a storage server at (ip, port).
// It does not replay file_metadata.dat rows itself — callers follow up with
// ReattachServer once the SS is in the registry.
func (c *Catalog) RegisterSS(ip string, port int) *StorageServer {
	c.mu.Lock()
	defer c.mu.Unlock()

	ep := Endpoint{IP: ip, Port: port}
	if ss, ok := c.servers[ep]; ok {
		return ss
	}
	ss := &StorageServer{Endpoint: ep, RegisteredAt: time.Now()}
	c.servers[ep] = ss
	c.serverOrder = append(c.serverOrder, ep)
	logger.Debug("storage server registered", "ss_endpoint", ep.String())
	return ss
}

// ServerCount reports how many storage servers are currently registered.
func (c *Catalog) ServerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.servers)
}

// PickSS returns the deterministic tie-break choice for a newly created
// file: the head of the SS registry, per spec.md §4.1.
func (c *Catalog) PickSS() (Endpoint, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.serverOrder) == 0 {
		return Endpoint{}, newErr(ErrNoSSAvailable, "PickSS", "no storage server is registered")
	}
	return c.serverOrder[0], nil
}

func (c *Catalog) SSRegistered(ep Endpoint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.servers[ep]
	return ok
}

// ReattachServer re-reads file_metadata.dat and installs any row pointing at
// ep that isn't already in the live index. It must be called by nsserver's
// REGISTER_SS handler right after RegisterSS — Open() drops every row whose
// SS wasn't registered yet (none are, at startup), so the only way those
// rows become routable again is for each SS to re-attach its own rows as it
// reconnects. Rows belonging to an SS that never comes back stay absent,
// matching spec.md §3's "unroutable until that SS re-registers".
func (c *Catalog) ReattachServer(ep Endpoint) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	registered := make(map[Endpoint]bool, len(c.servers))
	for e := range c.servers {
		registered[e] = true
	}
	onDisk, err := loadFiles(c.dir, registered)
	if err != nil {
		return 0, err
	}

	attached := 0
	for name, fm := range onDisk {
		if fm.SS != ep {
			continue
		}
		if c.files.search(name) != nil {
			continue
		}
		c.files.insert(name, fm)
		attached++
	}
	if attached > 0 {
		c.metrics.setCatalogSize(c.files.count)
		logger.Debug("reattached files to storage server", "ss_endpoint", ep.String(), "count", attached)
	}
	return attached, nil
}

// sentinelSSOwner is the owner assigned to a file row synthesized purely
// from an SS's registration advertisement, per spec.md §3.
const sentinelSSOwner = "ss_owner"

// AdoptAdvertisedFiles synthesizes a FileMetadata row, owned by the sentinel
// "ss_owner", for each name in filenames that the catalog does not already
// know about. Called from nsserver's REGISTER_SS handler with the file_csv
// the SS advertised — ReattachServer alone only restores rows the catalog
// already persisted; this covers files an SS has on disk that NS never
// heard of (e.g. its catalog file was lost).
func (c *Catalog) AdoptAdvertisedFiles(ep Endpoint, filenames []string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	adopted := 0
	for _, name := range filenames {
		if name == "" || c.files.search(name) != nil {
			continue
		}
		fm := &FileMetadata{
			Filename:   name,
			Owner:      sentinelSSOwner,
			SS:         ep,
			LastAccess: time.Now(),
		}
		c.files.insert(name, fm)
		adopted++
	}
	if adopted > 0 {
		c.metrics.setCatalogSize(c.files.count)
		if err := c.persistFilesLocked(); err != nil {
			return adopted, newErr(ErrUnknown, "AdoptAdvertisedFiles", "persist: %w", err)
		}
		logger.Debug("adopted advertised files", "ss_endpoint", ep.String(), "count", adopted)
	}
	return adopted, nil
}

// lookupLocked resolves filename via the LRU cache first, falling back to
// the hash index and promoting the hit into the cache, per spec.md §4.2.
func (c *Catalog) lookupLocked(filename string) *FileMetadata {
	if fm, ok := c.cache.get(filename); ok {
		c.metrics.cacheHit()
		return fm
	}
	c.metrics.cacheMiss()
	fm := c.files.search(filename)
	if fm != nil {
		c.cache.put(filename, fm)
	}
	return fm
}

// Lookup returns the metadata row for filename, or ErrFileNotFound.
func (c *Catalog) Lookup(filename string) (*FileMetadata, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fm := c.lookupLocked(filename)
	if fm == nil {
		return nil, newErr(ErrFileNotFound, "Lookup", "file %q not found", filename)
	}
	cp := *fm
	return &cp, nil
}

// InstallFile registers a brand-new file row after its owning SS has
// ACKed the create. Called by nsserver's CREATE handler strictly after the
// SS transaction succeeds (spec.md §9's "zombie metadata" resolution: never
// install before the ACK).
func (c *Catalog) InstallFile(fm *FileMetadata) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.files.search(fm.Filename) != nil {
		return newErr(ErrFileExists, "InstallFile", "file %q already exists", fm.Filename)
	}
	fm.LastAccess = time.Now()
	c.files.insert(fm.Filename, fm)
	c.cache.put(fm.Filename, fm)
	c.metrics.setCatalogSize(c.files.count)
	if err := c.persistFilesLocked(); err != nil {
		return newErr(ErrUnknown, "InstallFile", "persist: %w", err)
	}
	return nil
}

// RemoveFile deletes filename's row after its SS has ACKed the delete.
func (c *Catalog) RemoveFile(filename string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.files.search(filename) == nil {
		return newErr(ErrFileNotFound, "RemoveFile", "file %q not found", filename)
	}
	c.files.delete(filename)
	c.cache.remove(filename)
	c.metrics.setCatalogSize(c.files.count)
	if err := c.persistFilesLocked(); err != nil {
		return newErr(ErrUnknown, "RemoveFile", "persist: %w", err)
	}
	return nil
}

// mutateLocked runs fn against the live row for filename and persists on
// success. fn is expected to check permissions before it mutates anything.
func (c *Catalog) mutateLocked(filename string, fn func(*FileMetadata) error) error {
	fm := c.lookupLocked(filename)
	if fm == nil {
		return newErr(ErrFileNotFound, "mutate", "file %q not found", filename)
	}
	if err := fn(fm); err != nil {
		return err
	}
	fm.LastAccess = time.Now()
	if err := c.persistFilesLocked(); err != nil {
		return newErr(ErrUnknown, "mutate", "persist: %w", err)
	}
	return nil
}

// UpdateMeta lets the owner or a W-holder touch word/char counts after an SS
// write has been ACKed (spec.md: UNDO and UPDATE_META are W-gated).
func (c *Catalog) UpdateMeta(filename, requester string, wordCount, charCount int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mutateLocked(filename, func(fm *FileMetadata) error {
		if err := requireWrite(fm, requester); err != nil {
			return err
		}
		fm.WordCount = wordCount
		fm.CharCount = charCount
		return nil
	})
}

// AddAccess grants perm to username on filename. Owner-only.
func (c *Catalog) AddAccess(filename, requester, username string, perm Permission) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mutateLocked(filename, func(fm *FileMetadata) error {
		if err := requireOwner(fm, requester); err != nil {
			return err
		}
		if username == fm.Owner {
			return newErr(ErrInvalidArgs, "AddAccess", "%s is already the owner", username)
		}
		for i, e := range fm.AccessList {
			if e.Username == username {
				fm.AccessList[i].Permission = perm
				return nil
			}
		}
		fm.AccessList = append(fm.AccessList, AccessEntry{Username: username, Permission: perm})
		return nil
	})
}

// RemAccess revokes username's access to filename. Owner-only.
func (c *Catalog) RemAccess(filename, requester, username string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mutateLocked(filename, func(fm *FileMetadata) error {
		if err := requireOwner(fm, requester); err != nil {
			return err
		}
		for i, e := range fm.AccessList {
			if e.Username == username {
				fm.AccessList = append(fm.AccessList[:i], fm.AccessList[i+1:]...)
				return nil
			}
		}
		return newErr(ErrInvalidArgs, "RemAccess", "%s has no access entry on %s", username, filename)
	})
}

// Annotate sets filename's free-text annotation. Owner-only.
func (c *Catalog) Annotate(filename, requester, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mutateLocked(filename, func(fm *FileMetadata) error {
		if err := requireOwner(fm, requester); err != nil {
			return err
		}
		fm.Annotation = text
		return nil
	})
}

// ShowAnnotation returns filename's annotation text. R-gated.
func (c *Catalog) ShowAnnotation(filename, requester string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fm := c.lookupLocked(filename)
	if fm == nil {
		return "", newErr(ErrFileNotFound, "ShowAnnotation", "file %q not found", filename)
	}
	if err := requireRead(fm, requester); err != nil {
		return "", err
	}
	return fm.Annotation, nil
}

// RequestAccess files a pending request for username on filename, skipping a
// duplicate if one is already outstanding.
func (c *Catalog) RequestAccess(filename, username string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mutateLocked(filename, func(fm *FileMetadata) error {
		if fm.Owner == username {
			return newErr(ErrInvalidArgs, "RequestAccess", "%s already owns %s", username, filename)
		}
		for _, r := range fm.PendingRequests {
			if r.Username == username {
				return nil
			}
		}
		fm.PendingRequests = append(fm.PendingRequests, AccessRequest{Username: username, RequestedAt: time.Now()})
		return nil
	})
}

// ViewRequests returns filename's pending requests. Owner-only.
func (c *Catalog) ViewRequests(filename, requester string) ([]AccessRequest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fm := c.lookupLocked(filename)
	if fm == nil {
		return nil, newErr(ErrFileNotFound, "ViewRequests", "file %q not found", filename)
	}
	if err := requireOwner(fm, requester); err != nil {
		return nil, err
	}
	out := make([]AccessRequest, len(fm.PendingRequests))
	copy(out, fm.PendingRequests)
	return out, nil
}

// Approve grants perm to username and clears their pending request.
// Owner-only.
func (c *Catalog) Approve(filename, requester, username string, perm Permission) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mutateLocked(filename, func(fm *FileMetadata) error {
		if err := requireOwner(fm, requester); err != nil {
			return err
		}
		idx := -1
		for i, r := range fm.PendingRequests {
			if r.Username == username {
				idx = i
				break
			}
		}
		if idx == -1 {
			return newErr(ErrInvalidArgs, "Approve", "no pending request from %s on %s", username, filename)
		}
		fm.PendingRequests = append(fm.PendingRequests[:idx], fm.PendingRequests[idx+1:]...)
		for i, e := range fm.AccessList {
			if e.Username == username {
				fm.AccessList[i].Permission = perm
				return nil
			}
		}
		fm.AccessList = append(fm.AccessList, AccessEntry{Username: username, Permission: perm})
		return nil
	})
}

// Reject discards username's pending request without granting access.
// Owner-only.
func (c *Catalog) Reject(filename, requester, username string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mutateLocked(filename, func(fm *FileMetadata) error {
		if err := requireOwner(fm, requester); err != nil {
			return err
		}
		for i, r := range fm.PendingRequests {
			if r.Username == username {
				fm.PendingRequests = append(fm.PendingRequests[:i], fm.PendingRequests[i+1:]...)
				return nil
			}
		}
		return newErr(ErrInvalidArgs, "Reject", "no pending request from %s on %s", username, filename)
	})
}

// CreateFolder registers a directory row directly in the catalog. Unlike
// CREATE, CREATEFOLDER is catalog-only (spec.md §4.1's routing table) — no SS
// is involved, so there are no bytes and no SS endpoint to reserve.
func (c *Catalog) CreateFolder(name, owner string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.files.search(name) != nil {
		return newErr(ErrFileExists, "CreateFolder", "%q already exists", name)
	}
	fm := &FileMetadata{
		Filename:    name,
		IsDirectory: true,
		Owner:       owner,
		LastAccess:  time.Now(),
	}
	c.files.insert(name, fm)
	c.cache.put(name, fm)
	c.metrics.setCatalogSize(c.files.count)
	if err := c.persistFilesLocked(); err != nil {
		return newErr(ErrUnknown, "CreateFolder", "persist: %w", err)
	}
	return nil
}

// ViewFolder lists the rows whose Filename is directly nested under prefix
// (name + "/"), the natural "ls one level down" reading of a flat namespace.
func (c *Catalog) ViewFolder(prefix, requester string) ([]*FileMetadata, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	dir := c.lookupLocked(prefix)
	if dir == nil || !dir.IsDirectory {
		return nil, newErr(ErrFileNotFound, "ViewFolder", "%q is not a known folder", prefix)
	}
	if err := requireRead(dir, requester); err != nil {
		return nil, err
	}
	want := prefix + "/"
	var out []*FileMetadata
	for _, bucket := range c.files.buckets {
		for item := bucket; item != nil; item = item.next {
			if len(item.key) > len(want) && item.key[:len(want)] == want {
				rest := item.key[len(want):]
				nested := false
				for _, ch := range rest {
					if ch == '/' {
						nested = true
						break
					}
				}
				if !nested {
					out = append(out, item.value)
				}
			}
		}
	}
	return out, nil
}

// ViewAccessible returns the rows VIEW should render for requester: every row
// if includeInaccessible ("-a"), otherwise only rows requester can read.
func (c *Catalog) ViewAccessible(requester string, includeInaccessible bool) []*FileMetadata {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*FileMetadata, 0, c.files.count)
	for _, bucket := range c.files.buckets {
		for item := bucket; item != nil; item = item.next {
			if includeInaccessible || canRead(item.value, requester) {
				out = append(out, item.value)
			}
		}
	}
	return out
}

// Info returns filename's row for the INFO verb. R-gated.
func (c *Catalog) Info(filename, requester string) (*FileMetadata, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fm := c.lookupLocked(filename)
	if fm == nil {
		return nil, newErr(ErrFileNotFound, "Info", "file %q not found", filename)
	}
	if err := requireRead(fm, requester); err != nil {
		return nil, err
	}
	cp := *fm
	return &cp, nil
}

// CheckOwner resolves filename and rejects requester unless they own it,
// returning a copy of the row for callers (the owner-only NS-mediated
// handlers: DELETE, CHECKPOINT, REVERT) that need its SS endpoint before
// they ever dial out.
func (c *Catalog) CheckOwner(filename, requester string) (*FileMetadata, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fm := c.lookupLocked(filename)
	if fm == nil {
		return nil, newErr(ErrFileNotFound, "CheckOwner", "file %q not found", filename)
	}
	if err := requireOwner(fm, requester); err != nil {
		return nil, err
	}
	cp := *fm
	return &cp, nil
}

// CheckWriteAccess resolves filename and W-gates requester against it,
// returning a copy of the row for callers that only need its SS endpoint
// (the WRITE redirect handler) without mutating anything here themselves.
func (c *Catalog) CheckWriteAccess(filename, requester string) (*FileMetadata, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fm := c.lookupLocked(filename)
	if fm == nil {
		return nil, newErr(ErrFileNotFound, "CheckWriteAccess", "file %q not found", filename)
	}
	if err := requireWrite(fm, requester); err != nil {
		return nil, err
	}
	cp := *fm
	return &cp, nil
}

// AllFiles returns a shallow snapshot of every file row, for LIST/VIEWFOLDER
// rendering. Callers must not mutate the returned rows.
func (c *Catalog) AllFiles() []*FileMetadata {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*FileMetadata, 0, c.files.count)
	for _, bucket := range c.files.buckets {
		for item := bucket; item != nil; item = item.next {
			out = append(out, item.value)
		}
	}
	return out
}
