// Package probe inspects encoded images through the ImageMagick engine.
//
// A single "-ping ... -format ... info:" call per file reports format and
// pixel dimensions without decoding pixel data. The batch uses it to verify
// produced outputs against the geometry law (--verify).
package probe
