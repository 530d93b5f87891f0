// Command apitoken mints a bearer token for calling /pay when API_JWT_SECRET is set.
package main

import (
	"flag"
	"fmt"
	"os"

	"stkrelay/config"
	"stkrelay/internal/auth"
)

func main() {
	subject := flag.String("subject", "merchant", "merchant identifier stored in the token subject")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to API_JWT_EXPIRY)")
	flag.Parse()

	cfg := config.Load()
	if cfg.JWT.Secret == "" {
		fmt.Fprintln(os.Stderr, "API_JWT_SECRET is not set")
		os.Exit(1)
	}
	jwtCfg := cfg.JWT
	if *ttl > 0 {
		jwtCfg.Expiry = *ttl
	}
	token, err := auth.GenerateAccessToken(&jwtCfg, *subject)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
