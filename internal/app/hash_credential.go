package app

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"ward.fit/collate/internal/auth"
)

func runHashCredential(args []string) int {
	fs := flag.NewFlagSet("hash-credential", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	secret := fs.String("secret", "", "Credential to hash (read from stdin when omitted)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	value := strings.TrimSpace(*secret)
	if value == "" {
		fmt.Fprint(os.Stderr, "Credential: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read credential: %v\n", err)
			return 1
		}
		value = strings.TrimSpace(line)
	}

	hash, err := auth.HashCredential(value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash credential: %v\n", err)
		return 1
	}

	fmt.Println(hash)
	return 0
}
