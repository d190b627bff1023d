//go:build multiheader

package response

// DefaultMode is the header representation used by the package-level
// constructors. Target groups with multi-value headers enabled reject
// single-value responses, so this build flips the default.
const DefaultMode = MultiValue
