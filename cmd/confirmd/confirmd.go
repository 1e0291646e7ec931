package main

import (
	"os"

	"github.com/confirmd/confirmd/pkg/env"
	"github.com/urfave/cli"
	"gopkg.in/inconshreveable/log15.v2"
)

const (
	// AppName is the name of the application
	AppName = "confirmd"
	// AppVersion is the version of the application
	AppVersion = "0.1"
	// AppDescription describes what this application does
	AppDescription = "payment reconciliation daemon"
)

func main() {
	app := cli.NewApp()
	app.Name = AppName
	app.Version = AppVersion
	app.Usage = AppDescription

	app.Commands = []cli.Command{
		serveCommand,
		configCommand,
	}

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "config file name",
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		env.Log.Crit("error running confirmd", log15.Ctx{"err": err})
		os.Exit(1)
	}
}
