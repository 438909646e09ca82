package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// NodeID is a content-addressed node identifier: the SHA-256 of the path
// that created the node, so re-evaluating the same source yields the same
// IDs.
type NodeID [sha256.Size]byte

// ZeroID is the unset NodeID.
var ZeroID NodeID

// NewNodeID derives an ID from a creation path such as "defprim/lid".
func NewNodeID(path string) NodeID {
	return NodeID(sha256.Sum256([]byte(path)))
}

// IsZero reports whether id is unset.
func (id NodeID) IsZero() bool {
	return id == ZeroID
}

// Short is the first 8 hex digits, for messages.
func (id NodeID) Short() string {
	return hex.EncodeToString(id[:4])
}

func (id NodeID) String() string {
	return hex.EncodeToString(id[:])
}

// MarshalText encodes the ID as hex so it can key JSON objects.
func (id NodeID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText parses a hex ID.
func (id *NodeID) UnmarshalText(b []byte) error {
	if hex.DecodedLen(len(b)) != len(id) {
		return fmt.Errorf("graph: node id %q has wrong length", b)
	}
	_, err := hex.Decode(id[:], b)
	return err
}

// Vec3 is a 3D vector in scene units.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// IsZero reports whether every component is zero.
func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// Vec converts to the geometry vector type.
func (v Vec3) Vec() v3.Vec {
	return v3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}
