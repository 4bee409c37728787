package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"btree/cli"
	"btree/store"

	"github.com/go-faker/faker/v4"
	"go.uber.org/zap"
)

var (
	dataFolder             *string
	degree, seedNumRecords *int
	shouldReset            *bool
	shouldSeed, verbose    *bool
)

func eraseDataFolder() error {
	return os.RemoveAll(*dataFolder)
}

func seedStoreWithTestRecords(s *store.Store, logger *zap.Logger) error {
	for i := 0; i < *seedNumRecords; i++ {
		k := faker.Word() + faker.Word()
		v := faker.Word() + faker.Word()
		if err := s.Set(k, v); err != nil {
			return err
		}
	}
	logger.Info("seeded store", zap.Int("records", *seedNumRecords), zap.Int("keys", s.Stats().Keys))
	return nil
}

func newLogger() (*zap.Logger, error) {
	if *verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	setupFlags()

	logger, err := newLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *shouldReset {
		if err := eraseDataFolder(); err != nil {
			logger.Fatal("reset data folder", zap.Error(err))
		}
	}

	s, err := store.Open(*dataFolder, *degree, store.WithLogger(logger))
	if err != nil {
		logger.Fatal("open store", zap.String("dir", *dataFolder), zap.Error(err))
	}
	defer func() {
		if err := s.Close(); err != nil {
			logger.Error("close store", zap.Error(err))
		}
	}()

	if *shouldSeed {
		if err := seedStoreWithTestRecords(s, logger); err != nil {
			logger.Error("seed store", zap.Error(err))
		}
	}

	scanner := bufio.NewScanner(os.Stdin)
	demo := cli.NewCli(scanner, os.Stdout, s)
	demo.Start()
}

func setupFlags() {
	dataFolder = flag.String("dir", "demo", "Folder holding the journal of the index.")
	degree = flag.Int("degree", 5, "Minimum degree t of the B-Tree (each node holds t-1 to 2t-1 keys).")
	shouldReset = flag.Bool("reset", false, "Reset the index by erasing its folder before startup.")
	shouldSeed = flag.Bool("seed", false, "Seed the index using records created with go-faker.")
	seedNumRecords = flag.Int("records", 1000, "Amount of records to seed the index with upon startup.")
	verbose = flag.Bool("verbose", false, "Log at debug level, including root splits and collapses.")
	flag.Usage = func() {
		fmt.Println("\nB-Tree CLI\n\nArguments:")
		flag.PrintDefaults()
	}
	flag.Parse()
}
