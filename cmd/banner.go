package main

import (
	"fmt"
	"io"
	"runtime"
)

const banner = `
  _____                 _
 | ____|_ __ ___  _ __ | | ___  _   _  ___  ___
 |  _| | '_ ' _ \| '_ \| |/ _ \| | | |/ _ \/ _ \
 | |___| | | | | | |_) | | (_) | |_| |  __/  __/
 |_____|_| |_| |_| .__/|_|\___/ \__, |\___|\___|
                 |_|            |___/
`

func printBanner(w io.Writer, name, version string) {
	fmt.Fprint(w, banner)
	fmt.Fprintf(w, "\nService          %s\n", name)
	fmt.Fprintf(w, "Version          %s\n", version)
	fmt.Fprintf(w, "Go               %s\n", runtime.Version())
	fmt.Fprintf(w, "OS               %s/%s\n\n", runtime.GOOS, runtime.GOARCH)
}
