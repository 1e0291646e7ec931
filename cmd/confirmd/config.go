package main

import (
	"fmt"
	"os"

	"github.com/confirmd/confirmd/pkg/config"
	"github.com/urfave/cli"
)

const cfgCommandDescription = `This command allows you to write and inspect configuration
files.`

var configCommand = cli.Command{
	Name:        "config",
	ShortName:   "cfg",
	Usage:       "Configuration related tools.",
	Description: cfgCommandDescription,
	Subcommands: []cli.Command{
		writeConfigCommand,
	},
}

var writeConfigCommand = cli.Command{
	Name:      "write",
	ShortName: "w",
	Usage:     "Write a default configuration. Prints to stdout unless a file name is given.",
	Action:    writeConfigAction,
}

func loadConfig(c *cli.Context) (config.Config, error) {
	fileName := c.GlobalString("config")
	if fileName == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.ReadFileConfig(fileName)
	if err != nil {
		return cfg, fmt.Errorf("error reading config file %s: %v", fileName, err)
	}
	return cfg, nil
}

func writeConfigAction(c *cli.Context) error {
	cfg := config.DefaultConfig()
	if fileName := c.Args().First(); fileName != "" {
		f, err := os.Create(fileName)
		if err != nil {
			return fmt.Errorf("error creating config file %s: %v", fileName, err)
		}
		defer f.Close()
		return config.WriteConfig(f, cfg)
	}
	return config.WriteConfig(os.Stdout, cfg)
}
