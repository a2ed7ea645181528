// Package fat maintains the in-memory File Allocation Table backing an
// imgfs image: exactly NumBlocks entries, each FREE, EndOfChain, or the
// index of the next block in a chain. It allocates chains by linear scan
// with wrap-around and frees them by walking the chain, persisting the
// whole table to the image's reserved FAT blocks after every mutation.
package fat
