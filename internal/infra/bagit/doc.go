// Package bagit reads, verifies and writes BagIt packages.
//
// A bag is a directory holding bagit.txt, an optional bag-info.txt, a data/
// payload directory, one manifest-<alg>.txt per payload checksum algorithm and
// optional tagmanifest-<alg>.txt files covering the tag files.
package bagit
