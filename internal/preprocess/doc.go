// Package preprocess resolves #include directives into one compilation unit.
//
// Supported syntax, one directive per line:
//
//	#include "relative/path.glsl"   expanded in place, relative to the including file
//	/* <ignore> */ ... /* </ignore> */  includes in between are kept as text
//	uniform <type> <name>;          recorded as a UniformDecl
//
// There are no conditionals and no macros. Every emitted line carries a
// LineMap entry so compiler diagnostics can be traced back to the file and
// line that produced them.
package preprocess
