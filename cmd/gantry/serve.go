// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"gantry/internal/supervisor"
	"gantry/pkg/appfile"
)

var (
	serveBind    string
	serveWorkers int
	serveTimeout int
	serveChdir   string
	servePython  string

	serveCmd = &cobra.Command{
		Use:   "serve [module:attr]",
		Short: "Supervise WSGI worker processes on the host",
		Long: `Run the prefork process supervisor directly on the host: bind one
listening socket, spawn worker processes that inherit it, and keep them
healthy. A worker that stalls past the timeout is killed and replaced;
an entry point that cannot be imported aborts startup with a non-zero
exit before any connection is served.

The entry point is 'module:attr', resolved after changing into the
--chdir directory.`,
		Example: `  gantry serve --bind 0.0.0.0:5000 --workers 4 --timeout 120 --chdir web_app server:app`,
		Args:    cobra.MaximumNArgs(1),
		RunE:    runServe,
	}
)

func init() {
	serveCmd.Flags().StringVar(&serveBind, "bind", "0.0.0.0:5000", "address to bind, host:port")
	serveCmd.Flags().IntVar(&serveWorkers, "workers", appfile.DefaultWorkers, "number of worker processes")
	serveCmd.Flags().IntVar(&serveTimeout, "timeout", appfile.DefaultTimeout, "per-request timeout in seconds")
	serveCmd.Flags().StringVar(&serveChdir, "chdir", appfile.DefaultChdir, "directory to change into before resolving the entry point")
	serveCmd.Flags().StringVar(&servePython, "python", "", "Python interpreter for workers (default python3)")
}

func runServe(cmd *cobra.Command, args []string) error {
	entry := appfile.DefaultEntrypoint
	if len(args) == 1 {
		entry = appfile.Entrypoint(args[0])
	}

	logLevel := log.InfoLevel
	if verbose {
		logLevel = log.DebugLevel
	}

	s, err := supervisor.New(supervisor.Config{
		Bind:    serveBind,
		Workers: serveWorkers,
		Timeout: time.Duration(serveTimeout) * time.Second,
		Chdir:   serveChdir,
		Entry:   entry,
		Python:  servePython,
		Logger:  log.NewWithOptions(os.Stderr, log.Options{Prefix: "gantry", Level: logLevel}),
	})
	if err != nil {
		return err
	}

	if err := s.Run(cmd.Context()); err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("✗"), err)
		return &ExitError{Code: 1, Err: err}
	}
	return nil
}
