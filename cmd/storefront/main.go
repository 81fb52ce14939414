package main

import (
	stdLog "log"

	"github.com/joho/godotenv"

	"github.com/Astemirdum/bookstore-storefront/storefront/app"
	"github.com/Astemirdum/bookstore-storefront/storefront/config"
)

func main() {
	if err := godotenv.Load(); err != nil {
		stdLog.Println("no .env file, using environment: ", err)
	}
	cfg := config.NewConfig()

	app.Run(cfg)
}
