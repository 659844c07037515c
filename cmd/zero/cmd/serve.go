package cmd

import (
	"github.com/cloudemu/zero/internal/zerocli"

	"github.com/spf13/cobra"
)

func (p *parser) serveCmd() *cobra.Command {
	var serve zerocli.Serve
	cmd := p.leaf("serve", "Run the HTTP API and event stream", func() (zerocli.Command, error) {
		return serve, nil
	})
	cmd.Flags().IntVar(&serve.Port, "port", 0, "Port to listen on (default from config, 8080)")
	cmd.Flags().BoolVar(&serve.Mock, "mock", false, "Serve a fully mocked engine")
	return cmd
}

func (p *parser) eventsCmd() *cobra.Command {
	return p.leaf("events", "Stream resource events from a running server", func() (zerocli.Command, error) {
		return zerocli.Events{}, nil
	})
}
