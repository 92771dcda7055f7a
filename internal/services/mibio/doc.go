// Package mibio wraps the vendor's GUI TIFF generator: it assembles
// generate_tiff command lines and launches the tool headlessly without
// waiting for it to exit.
package mibio
