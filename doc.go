/*
Package cratebundle turns a multi-file Rust crate into a single source file for online judges and exercise graders that accept only one file.

The command lives in cmd/cratebundle; this package only documents the layout.

# Architecture (for developers)
 1. [config]: Read 'Cargo.toml' for the crate name and library root, and the optional 'bundle.toml'
 2. [bundler]: Classify source lines, expand "extern crate" and "mod" declarations recursively, rewrite "use" lines
 3. [textutils]: Line helpers shared by the bundler and the command's diagnostics
*/
package cratebundle
