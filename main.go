package main

import (
	"errors"
	"os"

	"github.com/xiaoyuanzhu-com/todo-api/cli"
	"github.com/xiaoyuanzhu-com/todo-api/db"
	"github.com/xiaoyuanzhu-com/todo-api/log"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		// The readiness gate already logged why the database never came up.
		var startupErr *db.StartupError
		if !errors.As(err, &startupErr) {
			log.Error().Err(err).Msg("fatal error")
		}
		os.Exit(1)
	}
}
