// Package docval holds the handful of typed value wrappers the render
// package recognizes when it pretty-prints a QueryPlan to MongoDB shell
// syntax (spec §6): long integers, and legacy-shape binary data. Ordinary
// values (string, float64, bool, primitive.ObjectID, primitive.DateTime)
// need no wrapper because the mongo-driver bson types already carry enough
// information for the renderer to recognize them directly.
package docval

// Long marks a value that must render as {"$numberLong": "N"} rather than a
// bare JSON number, preserving 64-bit range through the shell pretty
// printer (spec §6).
type Long int64

// Binary is base64-encoded binary data rendered in the legacy extended-JSON
// shape spec §6 requires: {"$binary": "<b64>", "$type": "<subtype>"}. The
// mongo-driver's own primitive.Binary marshals to the newer canonical
// extJSON shape ({"$binary": {"base64": ..., "subType": ...}}), so this
// repo carries its own wrapper rather than reusing that type for rendering.
type Binary struct {
	Base64  string
	Subtype string
}
