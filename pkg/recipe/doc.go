// Package recipe interprets the Make-variable dialect used by package
// build recipes.
//
// # Overview
//
// A recipe is a Makefile fragment describing one package:
//
//	PKG_NAME = zlib
//	PKG_VERS = 1.3.1
//	PKG_EXT = tar.gz
//	PKG_DIST_NAME = $(PKG_NAME)-$(PKG_VERS).$(PKG_EXT)
//	PKG_DIST_SITE = https://zlib.net/fossils
//	DEPENDS = cross/bzip2
//
// Only assignments are modeled. Each line matching
//
//	IDENT ( = | ?= | := | ::= | += ) value [# comment]
//
// becomes one ordered value of IDENT; every other line (rules, includes,
// conditionals) is kept verbatim but otherwise ignored. A value is a
// sequence of literal runs and nested $(...) or ${...} calls.
//
// # Evaluation
//
// Assigning the same variable several times yields several values, in file
// order. References to such a variable expand to one string per
// combination of the referenced values:
//
//	TEST = 10
//	TEST = 21
//	VALUE = 56_$(TEST)_11   # ["56_10_11", "56_21_11"]
//
// Inside a call the first word names a function when arguments follow it.
// Two functions exist, subst and value; unknown functions and malformed
// calls expand to the empty string. A bare identifier expands to the
// variable's values.
//
// Values are evaluated once while parsing. [Interpreter.Set] followed by
// [Interpreter.Reevaluate] recomputes a derived variable against the
// overridden state without reparsing:
//
//	in.Set("PKG_VERS", "9.9")
//	in.Reevaluate("PKG_DIST_NAME") // ["zlib-9.9.tar.gz"]
//
// # Patching
//
// [Interpreter.SafePatch] rewrites the value span of selected assignments
// and returns the full text; operators, whitespace, comments and every
// other line are left byte-identical. Variables whose value is built from
// a call are refused with [ErrUnsafePatch].
package recipe
