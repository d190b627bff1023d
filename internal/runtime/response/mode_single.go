//go:build !multiheader

package response

// DefaultMode is the header representation used by the package-level
// constructors.
const DefaultMode = SingleValue
