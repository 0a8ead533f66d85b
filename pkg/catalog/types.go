// Package catalog implements the Name Server's authoritative metadata store:
// users, the storage-server registry, the file catalog with its djb2 hash
// index, and the bounded LRU read cache in front of it. Grounded on
// _examples/original_source/src/name_server/{types.h,hash_table.h,CRWD.c}
// for semantics (djb2, HT_SIZE 1024, owner-implicit-W) and on the teacher's
// pkg/metadata/store.go for the Go store-interface shape.
package catalog

import (
	"strconv"
	"time"
)

// Permission is a grant on a non-owner access-list entry.
type Permission byte

const (
	PermRead  Permission = 'R'
	PermWrite Permission = 'W'
)

// Endpoint identifies a Storage Server by its advertised address. FileMetadata
// holds this as a weak, lookup-only reference — never an owning pointer to
// the StorageServer's lifetime (spec.md §9).
type Endpoint struct {
	IP   string
	Port int
}

func (e Endpoint) String() string {
	if e.IP == "" && e.Port == 0 {
		return ""
	}
	return e.IP + ":" + strconv.Itoa(e.Port)
}

// User is a registered client identity.
type User struct {
	Username     string
	LastAddress  string
	RegisteredAt time.Time
}

// StorageServer is a registered SS endpoint and the time it registered.
type StorageServer struct {
	Endpoint     Endpoint
	RegisteredAt time.Time
}

// AccessEntry grants a non-owner user R or W on a file.
type AccessEntry struct {
	Username   string
	Permission Permission
}

// AccessRequest is a pending REQUESTACCESS slot, one per (file, user).
type AccessRequest struct {
	Username    string
	RequestedAt time.Time
}

// FileMetadata is the catalog's row for one file. The owner implicitly has
// RW and is never duplicated into AccessList.
type FileMetadata struct {
	Filename         string
	IsDirectory      bool
	Owner            string
	SS               Endpoint
	WordCount        int
	CharCount        int
	LastAccess       time.Time
	AccessList       []AccessEntry
	PendingRequests  []AccessRequest
	Annotation       string
}
