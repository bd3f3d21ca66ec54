// Package ir provides the resolved schema intermediate representation for
// structcc.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This ensures IR remains the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - A Schema is immutable once compiler.Build returns it; the codec and
//     the code generator share it read-only without synchronization
//   - Decoded values use the sealed Value interface - consumers type-switch
//     exhaustively, never duck-type
//   - NO float types anywhere - wire integers are int64
//   - All JSON tags use snake_case
package ir
