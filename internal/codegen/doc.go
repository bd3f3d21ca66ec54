// Package codegen renders a resolved schema into source files for other
// languages. A template set (TOML: a primitive type table plus one
// text/template body per definition kind) fully describes a target language;
// C, Rust, Scala, and CSV sets are embedded, and a user-supplied set merges
// over a builtin one leaf by leaf.
package codegen
