// Command scylla runs the attack/defend scoring engine: prepare seeds the
// store from a round config, start runs the scoring pipeline and dashboard.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"scylla/internal/config"
	"scylla/internal/inject"
	"scylla/internal/persist"
	"scylla/internal/pipeline"
	"scylla/internal/probeset"
	"scylla/internal/scheduler"
	"scylla/internal/store"
	"scylla/internal/web"

	"github.com/spf13/cobra"
)

const configPath = "./scylla.hocon"

const (
	exitOK          = 0
	exitConfigError = 1
	exitStoreError  = 2
)

func main() {
	root := &cobra.Command{
		Use:           "scylla",
		Short:         "attack/defend scoring engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(prepareCmd(), startCmd())

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func loadRoundOrExit() *config.Round {
	round, err := config.Load(configPath)
	if err != nil {
		log.Printf("config error: %v", err)
		os.Exit(exitConfigError)
	}
	return round
}

func openStoreOrExit(round *config.Round) *store.Store {
	st, err := store.Open(round.StoreURL)
	if err != nil {
		log.Printf("store error: %v", err)
		os.Exit(exitStoreError)
	}
	return st
}

func prepareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prepare",
		Short: "run setup against the store and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			round := loadRoundOrExit()
			st := openStoreOrExit(round)
			defer st.Close()

			if err := st.Setup(cmd.Context(), round); err != nil {
				log.Printf("setup error: %v", err)
				os.Exit(exitStoreError)
			}
			log.Println("setup complete")
			os.Exit(exitOK)
			return nil
		},
	}
}

func startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "run the scoring pipeline and dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			run()
			return nil
		},
	}
}

func run() {
	round := loadRoundOrExit()
	st := openStoreOrExit(round)
	defer st.Close()

	set, err := probeset.BuildInitialSet(round)
	if err != nil {
		log.Printf("probe set error: %v", err)
		os.Exit(exitConfigError)
	}

	resultsIn, resultsOut := pipeline.NewUnbounded()

	sched := scheduler.New(
		set,
		resultsIn,
		time.Duration(round.Interval)*time.Second,
		time.Duration(round.Jitter)*time.Second,
		time.Duration(round.Timeout)*time.Second,
	)
	pers := persist.New(st, resultsOut)
	injectSched := inject.New(round, set)
	webServer := web.New(round, st)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Run(ctx)
		close(resultsIn)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		pers.Run(ctx)
	}()

	injectSched.Run(ctx, &wg)

	go func() {
		log.Printf("dashboard listening on :%d", round.WebPort)
		if err := webServer.ListenAndServe(); err != nil {
			log.Printf("dashboard error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("shutting down, draining in-flight probes...")
	cancel()
	wg.Wait()
}
