// Command tolkd runs internal/compileserver's CompileService over gRPC,
// for editor/IDE integrations that want compiler diagnostics and
// emitted assembly without shelling out to tolkc per keystroke.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tolklang/tolk/internal/compileserver"
)

func main() {
	addr := flag.String("addr", ":8947", "address to listen on")
	flag.Parse()

	srv, err := compileserver.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tolkd: %s\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "tolkd: listening on %s\n", *addr)
	if err := srv.Serve(*addr); err != nil {
		fmt.Fprintf(os.Stderr, "tolkd: %s\n", err)
		os.Exit(1)
	}
}
