package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/apps/shared"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core"
	logsvc "github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/services/logger"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	logger.Enable(false)

	if missing := conf.Missing(); len(missing) > 0 {
		logger.Fatal(core.NewConfigError(missing...).Error())
	}

	backend, err := shared.NewBackend(context.Background(), conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up backend: %v", err), err)
	}

	// start CLI
	cli := commandLine{
		usrSvc:  backend.UserSvc,
		deleter: backend.Deleter,
		out:     os.Stdout,
	}
	err = cli.run(os.Args)
	_ = backend.Close()
	if err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
