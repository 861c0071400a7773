// Command kimchi checks links in Markdown, HTML, and plaintext documents.
package main

import (
	"github.com/kimchi-link/kimchi/cmd"
)

func main() {
	cmd.Execute()
}
