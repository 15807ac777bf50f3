// Package memory provides the episodic memory model: entries, the tiered
// MemoryLayers container, and retrieval scoring.
package memory

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
)

// MemoryID uniquely identifies a memory entry.
//
// IDs are generated once when an entry is created and never change. They are
// the lookup key for every by-id operation on MemoryLayers.
type MemoryID string

// EntityID is an opaque reference to another simulated entity.
type EntityID string

// EventID is an opaque reference to the event that produced a memory.
type EventID string

// MicrosystemID is an opaque reference to a social context (home, school, work).
type MicrosystemID string

// memoryIDPrefix is prepended to every generated MemoryID.
const memoryIDPrefix = "mem_"

var (
	idNode     *snowflake.Node
	idNodeErr  error
	idNodeOnce sync.Once
)

func node() (*snowflake.Node, error) {
	idNodeOnce.Do(func() {
		idNode, idNodeErr = snowflake.NewNode(1)
	})
	return idNode, idNodeErr
}

// NewMemoryID generates a new unique MemoryID.
//
// IDs come from a process-wide Snowflake node, so they are unique across
// entities without any coordination by the caller.
func NewMemoryID() MemoryID {
	n, err := node()
	if err != nil {
		// snowflake.NewNode only fails for node numbers outside its range.
		panic(fmt.Sprintf("memory: snowflake node: %v", err))
	}
	return MemoryID(memoryIDPrefix + n.Generate().String())
}

// ParseMemoryID validates a caller-supplied identifier.
//
// Returns ErrInvalidID if s is empty.
func ParseMemoryID(s string) (MemoryID, error) {
	if s == "" {
		return "", ErrInvalidID
	}
	return MemoryID(s), nil
}

// String returns the identifier as a string.
func (id MemoryID) String() string {
	return string(id)
}
