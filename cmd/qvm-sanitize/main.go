// Command qvm-sanitize is the trusted-side CLI: it spawns a disposable
// server process per file, streams each page through the sanitization
// wire protocol, and reassembles a flat, rasterized PDF.
package main

import "github.com/MeKo-Tech/qvm-pdf-sanitize/cmd/qvm-sanitize/cmd"

func main() {
	cmd.Execute()
}
