// Command irmaseal-keygen generates a master X25519 keypair for the
// ECDH stand-in KEM (pkg/kem.ECDHScheme) and prints both halves to
// stdout, base64-encoded, the way cmd/keygen previously dumped a raw AES
// key to stdout.
package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/privacybydesign/irmaseal-go/pkg/kem"
)

func main() {
	pk, sk, err := kem.GenerateMasterKeypair(rand.Reader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating master keypair: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Master public key (distribute to senders):\n%s\n\n", base64.StdEncoding.EncodeToString(pk))
	fmt.Printf("Master secret key (keep offline; in this stand-in scheme it is also the UserSecretKey for unseal):\n%s\n", base64.StdEncoding.EncodeToString(sk))
}
