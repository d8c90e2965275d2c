package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/tubeauth/internal/client/cli"
	"github.com/dmitrijs2005/tubeauth/internal/client/config"
)

func main() {

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := cli.NewApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(context.Background())

}
