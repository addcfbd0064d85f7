// gen-testdata writes a synthetic snapshot to stdout, one
// user record per generated id: user<i>_name, user<i>_phone and
// user<i>_city keys in the store's flat-file format.  Redirect the
// output to a store path to seed a table for benchmarks.
package main

import (
	crand "crypto/rand"
	"encoding/binary"
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/abdellahhioun/Cachelab/internal/bucket"
	"github.com/abdellahhioun/Cachelab/internal/keyfile"
)

var cities = []string{
	"Paris", "Rabat", "Tokyo", "Oslo", "Lima", "Quito", "Accra", "Hanoi",
}

func newRand() *rand.Rand {
	var seedBytes [8]byte
	crand.Read(seedBytes[:])
	seed := int64(binary.LittleEndian.Uint64(seedBytes[:]))
	return rand.New(rand.NewSource(seed))
}

func main() {
	nUsers := flag.Int("n", 1000, "number of user records to generate")
	flag.Parse()

	rng := newRand()
	entries := make([]bucket.Entry, 0, *nUsers*3)
	for i := 0; i < *nUsers; i++ {
		user := fmt.Sprintf("user%d", i)
		entries = append(entries,
			bucket.Entry{Key: user + "_name", Value: fmt.Sprintf("name-%08x", rng.Uint32())},
			bucket.Entry{Key: user + "_phone", Value: fmt.Sprintf("+%010d", rng.Int63n(1e10))},
			bucket.Entry{Key: user + "_city", Value: cities[rng.Intn(len(cities))]},
		)
	}

	data := keyfile.Encode(entries)
	if _, err := os.Stdout.Write(append(data, '\n')); err != nil {
		panic(err)
	}
}
