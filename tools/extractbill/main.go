// Command extractbill parses the text layer of a utility bill PDF and prints
// the recovered billing data as JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"meterdata-cloud/internal/extractor/utilitybill"
)

func main() {
	var path string
	flag.StringVar(&path, "in", "", "path to the bill PDF")
	flag.Parse()

	if path == "" {
		fmt.Fprintln(os.Stderr, "usage: extractbill -in <bill.pdf>")
		os.Exit(2)
	}

	file, err := os.Open(path)
	if err != nil {
		log.Fatalf("open error: %v", err)
	}
	defer file.Close()

	bill, err := utilitybill.Extract(file)
	if err != nil {
		log.Fatalf("extract error: %v", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(bill); err != nil {
		log.Fatalf("encode error: %v", err)
	}
}
