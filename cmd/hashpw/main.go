// Command hashpw prints a bcrypt hash for a password, or checks a password against a hash.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/Clark-Hu/store-ratings/internal/auth"
)

func main() {
	var (
		password = flag.String("password", "", "password to hash or verify")
		hash     = flag.String("verify", "", "existing bcrypt hash to check the password against")
		cost     = flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost used when hashing")
	)
	flag.Parse()

	if *password == "" {
		*password = os.Getenv("HASHPW_PASSWORD")
	}
	if *password == "" {
		logrus.Fatal("a password is required: use -password or HASHPW_PASSWORD")
	}

	hasher := auth.NewHasher(*cost)

	if *hash != "" {
		ok, err := hasher.Verify(*hash, *password)
		if err != nil {
			logrus.WithError(err).Fatal("verify")
		}
		fmt.Println(ok)
		if !ok {
			os.Exit(1)
		}
		return
	}

	hashed, err := hasher.Hash(*password)
	if err != nil {
		logrus.WithError(err).Fatal("hash")
	}
	fmt.Println(hashed)
}
