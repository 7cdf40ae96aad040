// Command qvm-sanitize-server is the untrusted-side RPC service invoked
// once per file inside the disposable VM.
package main

import "github.com/MeKo-Tech/qvm-pdf-sanitize/cmd/qvm-sanitize-server/cmd"

func main() {
	cmd.Execute()
}
