package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/Astemirdum/bookstore-storefront/storefront/cli"
)

func main() {
	_ = godotenv.Load()
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "bookstore:", err)
		os.Exit(1)
	}
}
