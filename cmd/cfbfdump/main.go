// Command cfbfdump prints the byte length, stream count and stream list
// (path, size, CLSID) of a CFBF container, for debugging. It does not
// print the header fields. Grounded on TalentFormula-msdoc's
// cmd/msdocdump/main.go and the usage example in mscfb's package doc.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cfblib/cfbf"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s <file.cfb>\n", os.Args[0])
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "cfbfdump:", err)
		os.Exit(1)
	}

	files, err := cfbf.Files(data)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cfbfdump:", err)
		os.Exit(1)
	}

	fmt.Printf("%d bytes, %d streams\n", len(data), len(files))
	for _, f := range files {
		fmt.Printf("  %-40s %8d bytes  clsid=%s\n", f.Path, f.Size, f.CLSID)
	}
}
