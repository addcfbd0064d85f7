// cachelab-cli runs one-shot commands against a snapshot file.
package main

import (
	"flag"
	"fmt"
	"os"

	cachelab "github.com/abdellahhioun/Cachelab"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "get":
		getCmd()
	case "set":
		setCmd()
	case "update":
		updateCmd()
	case "delete":
		deleteCmd()
	case "keys":
		keysCmd()
	case "stats":
		statsCmd()
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Cachelab CLI - key-value snapshot tool

Usage:
  cachelab-cli <command> [options]

Commands:
  get         Print the value stored under a key
  set         Store a value under a key
  update      Overwrite an existing key only
  delete      Remove a key
  keys        List keys, optionally by prefix
  stats       Print table statistics
  help        Show this help

Examples:
  cachelab-cli set -data ./data/store.txt -key name -value John
  cachelab-cli get -data ./data/store.txt -key name
  cachelab-cli keys -data ./data/store.txt -prefix user1_`)
}

func openStore(data string, readOnly bool) *cachelab.Store {
	var opts []cachelab.Option
	if readOnly {
		// reads work against a snapshot another process owns
		opts = append(opts, cachelab.WithNoLock())
	}
	s, err := cachelab.Open(data, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open store: %v\n", err)
		os.Exit(1)
	}
	return s
}

func getCmd() {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	data := fs.String("data", "./data/store.txt", "Snapshot file path")
	key := fs.String("key", "", "Key to look up (required)")
	fs.Parse(os.Args[2:])
	requireKey(*key)

	s := openStore(*data, true)
	defer func() { _ = s.Close() }()

	value, ok := s.Get(*key)
	if !ok {
		fmt.Fprintf(os.Stderr, "Key not found: %s\n", *key)
		os.Exit(1)
	}
	fmt.Println(value)
}

func setCmd() {
	fs := flag.NewFlagSet("set", flag.ExitOnError)
	data := fs.String("data", "./data/store.txt", "Snapshot file path")
	key := fs.String("key", "", "Key to store (required)")
	value := fs.String("value", "", "Value to store")
	fs.Parse(os.Args[2:])
	requireKey(*key)

	s := openStore(*data, false)
	defer func() { _ = s.Close() }()
	s.Set(*key, *value)
}

func updateCmd() {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	data := fs.String("data", "./data/store.txt", "Snapshot file path")
	key := fs.String("key", "", "Key to update (required)")
	value := fs.String("value", "", "New value")
	fs.Parse(os.Args[2:])
	requireKey(*key)

	s := openStore(*data, false)
	defer func() { _ = s.Close() }()
	if !s.Update(*key, *value) {
		fmt.Fprintf(os.Stderr, "Key not found: %s\n", *key)
		os.Exit(1)
	}
}

func deleteCmd() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	data := fs.String("data", "./data/store.txt", "Snapshot file path")
	key := fs.String("key", "", "Key to delete (required)")
	fs.Parse(os.Args[2:])
	requireKey(*key)

	s := openStore(*data, false)
	defer func() { _ = s.Close() }()
	if !s.Delete(*key) {
		fmt.Fprintf(os.Stderr, "Key not found: %s\n", *key)
		os.Exit(1)
	}
}

func keysCmd() {
	fs := flag.NewFlagSet("keys", flag.ExitOnError)
	data := fs.String("data", "./data/store.txt", "Snapshot file path")
	prefix := fs.String("prefix", "", "Only list keys with this prefix")
	fs.Parse(os.Args[2:])

	s := openStore(*data, true)
	defer func() { _ = s.Close() }()

	keys := s.Keys()
	if *prefix != "" {
		keys = s.KeysWithPrefix(*prefix)
	}
	for _, k := range keys {
		fmt.Println(k)
	}
}

func statsCmd() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	data := fs.String("data", "./data/store.txt", "Snapshot file path")
	fs.Parse(os.Args[2:])

	s := openStore(*data, true)
	defer func() { _ = s.Close() }()

	st := s.Stats()
	fmt.Printf("path:        %s\n", st.Path)
	fmt.Printf("entries:     %d\n", st.Entries)
	fmt.Printf("buckets:     %d\n", st.Buckets)
	fmt.Printf("load factor: %.4f\n", st.LoadFactor)
	fmt.Printf("fingerprint: %016x\n", st.Fingerprint)
}

func requireKey(key string) {
	if key == "" {
		fmt.Fprintln(os.Stderr, "Error: -key is required")
		os.Exit(1)
	}
}
