// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

// env_config writes the table of environment variables that can override the
// callgrid configuration.
package main

import (
	"log"
	"os"
	"text/tabwriter"

	"github.com/mattermost/callgrid/service"

	"github.com/kelseyhightower/envconfig"
)

const usageFormat = "### Config Environment Overrides\n\n```\nKEY\tTYPE\n{{range .}}{{usage_key .}}\t{{usage_type .}}\n{{end}}```\n"

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("unexpected number of arguments, need 1")
	}

	outFile, err := os.OpenFile(os.Args[1], os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		log.Fatalf("failed to write file: %s", err.Error())
	}
	defer outFile.Close()

	var cfg service.Config
	cfg.SetDefaults()

	tabs := tabwriter.NewWriter(outFile, 1, 0, 4, ' ', 0)
	if err := envconfig.Usagef("callgrid", &cfg, tabs, usageFormat); err != nil {
		log.Fatalf("failed to generate usage: %s", err.Error())
	}
	if err := tabs.Flush(); err != nil {
		log.Fatalf("failed to flush output: %s", err.Error())
	}
}
