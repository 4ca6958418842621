// derive_key.go prints the relayer public key and klayr32 address for a
// passphrase read from stdin, so the account can be funded before
// registration.
// Usage: go run scripts/derive_key.go [derivation-path] < phrase.txt
package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/Klingon-tech/klayr-reg/pkg/crypto"
)

func main() {
	path := crypto.DefaultDerivationPath
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	phrase, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && strings.TrimSpace(phrase) == "" {
		fmt.Fprintln(os.Stderr, "usage: derive_key [path] < phrase.txt")
		os.Exit(1)
	}
	key, err := crypto.PrivateKeyFromPhraseAndPath(strings.TrimSpace(phrase), path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer key.Zero()
	fmt.Printf("path=%s\n", path)
	fmt.Printf("pubkey=%s\n", hex.EncodeToString(key.PublicKey()))
	fmt.Printf("address=%s\n", key.Address().String())
}
