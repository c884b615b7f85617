// Package domain defines the core types of the resume retrieval engine:
// units, vectors, typed metadata, the embedder and index ports, and the
// error taxonomy shared by every other package.
//
// It imports the standard library only.
package domain
