// Package waspweb provides the server-side core of the scripts marketplace:
// publication of versioned script files with their cover and banner images,
// the privileged admin session used for protected profile operations, and the
// repository and blob store contracts the page assemblers and HTTP handlers
// are built on.
//
// Script Versioning
//
// Every upload of a script file gets a new revision. Revisions start at 1 and
// only grow; each one is stored under its own zero-padded path in the scripts
// bucket, so older revisions stay downloadable. Images are not versioned and
// are overwritten in place. Before a script file is stored its SCRIPT_ID and
// SCRIPT_REVISION directives are rewritten (see package directive) so the
// interpreter running the script knows which revision it is.
package waspweb
