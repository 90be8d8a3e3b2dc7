// Package main writes a development TLS bundle (CA, server and client
// certificates) for the GophMall backend and terminal client.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atinyakov/GophMall/internal/certgen"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("certgen", flag.ContinueOnError)
	fs.SetOutput(out)
	dir := fs.String("dir", "certs", "output directory")
	hosts := fs.String("hosts", "localhost,127.0.0.1", "comma separated server host names and IPs")
	client := fs.String("client", "gophmall-client", "client certificate common name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var hostList []string
	for _, h := range strings.Split(*hosts, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hostList = append(hostList, h)
		}
	}
	if err := certgen.WriteBundle(*dir, certgen.BundleOptions{Hosts: hostList, ClientName: *client}); err != nil {
		return err
	}

	fmt.Fprintf(out, "Certificates generated into %s\n", *dir)
	fmt.Fprintf(out, "server: -a :8443 -cert %s/%s -key %s/%s -ca %s/%s\n",
		*dir, certgen.ServerCertFile, *dir, certgen.ServerKeyFile, *dir, certgen.CACertFile)
	fmt.Fprintf(out, "client: -url https://localhost:8443 -ca %s/%s -cert %s/%s -key %s/%s\n",
		*dir, certgen.CACertFile, *dir, certgen.ClientCertFile, *dir, certgen.ClientKeyFile)
	return nil
}
