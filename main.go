package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/verbavista-backend/api"
	"github.com/rpupo63/verbavista-backend/auth"
	"github.com/rpupo63/verbavista-backend/config"
	"github.com/rpupo63/verbavista-backend/database"
	"github.com/rpupo63/verbavista-backend/services"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Info().Msg("Initializing app...")

	c := config.Load()
	if config.GetBool(c, "DEBUG", false) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	db, err := database.Open(c)
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to database")
	}

	// Enable required PostgreSQL extensions
	if db.Dialector.Name() == "postgres" {
		if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
			log.Fatal().Err(err).Msg("Error enabling uuid-ossp extension")
		}
	}

	currentDB := database.New(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := currentDB.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Error testing database connection")
	}

	// If generating column mismatch report, run report and exit
	if config.GetBool(c, "GENERATE_COLUMN_REPORT", false) {
		printColumnReport(currentDB)
		return
	}

	if err := currentDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Error migrating database")
	}

	secret, err := config.ResolveSecret(ctx, c, "JWT_SECRET", config.NewSSMStore)
	if err != nil {
		log.Fatal().Err(err).Msg("Error resolving JWT secret")
	}
	ttl := time.Duration(config.GetInt(c, "JWT_TTL_HOURS", int(auth.DefaultTokenTTL/time.Hour))) * time.Hour
	tokens, err := auth.NewTokenManager(secret, ttl)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing token manager")
	}

	images, err := services.NewImageStore(ctx, c)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing image store")
	}

	errChannel := make(chan error)
	defer close(errChannel)

	server, err := api.NewServer(currentDB, c, tokens, images)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing server")
	}

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	log.Info().Msgf("Closing server: %v", fatalErr)

	server.ShutdownGracefully(30 * time.Second)
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}

// printColumnReport prints the columns of the live schema that no model maps to.
func printColumnReport(db database.Database) {
	log.Info().Msg("Generating column mismatch report...")

	report, err := db.ColumnMismatchReport()
	if err != nil {
		log.Fatal().Err(err).Msg("Error generating column report")
	}
	if len(report) == 0 {
		fmt.Println("Every column maps to a model field.")
		return
	}

	tables := make([]string, 0, len(report))
	for table := range report {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	for _, table := range tables {
		fmt.Printf("%s: unmapped %v\n", table, report[table])
	}
}
