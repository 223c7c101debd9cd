// Package packed implements the compact binary encoding of per-item media
// attributes: lifecycle flags and orientation in one 32-bit word, and
// position/duration, width/height and latitude/longitude pairs in 64-bit
// words. All decoding of the packed columns stored by the database package
// goes through this package; nothing else interprets the raw integers.
package packed
