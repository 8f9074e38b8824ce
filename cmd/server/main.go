// Package main is the entry point for AdEvaluator, a statistical evaluator
// for advertising effectiveness. It compares average sales before and after
// an advertising start date using Welch's t-test and reports both the
// statistical and the practical significance of the change.
//
// Two launch modes:
//   - default: HTTP service exposing evaluation, settings and run history
//   - headless: -input and -adv-date run one evaluation, print the text
//     report and exit
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/MathematicalSoftware/AdEvaluator/internal/config"
	"github.com/MathematicalSoftware/AdEvaluator/internal/database"
	"github.com/MathematicalSoftware/AdEvaluator/internal/modules/evaluation"
	evaluationhandlers "github.com/MathematicalSoftware/AdEvaluator/internal/modules/evaluation/handlers"
	"github.com/MathematicalSoftware/AdEvaluator/internal/modules/history"
	"github.com/MathematicalSoftware/AdEvaluator/internal/modules/sales"
	"github.com/MathematicalSoftware/AdEvaluator/internal/modules/settings"
	settingshandlers "github.com/MathematicalSoftware/AdEvaluator/internal/modules/settings/handlers"
	"github.com/MathematicalSoftware/AdEvaluator/internal/scheduler"
	"github.com/MathematicalSoftware/AdEvaluator/internal/server"
	"github.com/MathematicalSoftware/AdEvaluator/pkg/logger"
)

const licenseText = `AdEvaluator - advertising effectiveness evaluation

This program is free software: you can redistribute it and/or modify it
under the terms of the GNU General Public License as published by the
Free Software Foundation, either version 3 of the License, or (at your
option) any later version.

This program is distributed in the hope that it will be useful, but
WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
General Public License for more details: <https://www.gnu.org/licenses/>.
`

func main() {
	showLicense := flag.Bool("license", false, "print licensing text and exit")
	inputFile := flag.String("input", "", "sales report CSV for a headless one-shot evaluation")
	advDate := flag.String("adv-date", "", "advertising start date for the headless evaluation")
	flag.Parse()

	if *showLicense {
		fmt.Print(licenseText)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	if *inputFile != "" {
		runHeadless(cfg, *inputFile, *advDate, log)
		return
	}

	log.Info().Msg("Starting AdEvaluator")

	settingsDB, err := database.New(database.Config{
		Path:    cfg.SettingsDBPath(),
		Profile: database.ProfileStandard,
		Name:    "settings",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open settings database")
	}
	defer settingsDB.Close()

	historyDB, err := database.New(database.Config{
		Path:    cfg.HistoryDBPath(),
		Profile: database.ProfileHistory,
		Name:    "history",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history database")
	}
	defer historyDB.Close()

	settingsRepo, err := settings.NewRepository(settingsDB.Conn(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize settings repository")
	}
	historyRepo, err := history.NewRepository(historyDB.Conn(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize history repository")
	}

	service := evaluation.NewService(log)

	srv := server.New(server.Config{
		Port:               cfg.Port,
		DevMode:            cfg.DevMode,
		Log:                log,
		Cfg:                cfg,
		SettingsDB:         settingsDB,
		HistoryDB:          historyDB,
		EvaluationHandlers: evaluationhandlers.NewHandler(cfg, service, settingsRepo, historyRepo, log),
		SettingsHandlers:   settingshandlers.NewHandler(cfg, settingsRepo, log),
	})

	// Optional scheduled re-evaluation of the configured export
	var sched *scheduler.Scheduler
	if schedule, err := settingsRepo.GetString(settings.KeySchedule, cfg.Schedule); err == nil && schedule != "" {
		sched = scheduler.New(log)
		job := scheduler.NewRefreshJob(cfg, settingsRepo, historyRepo, service, log)
		if err := sched.AddJob(schedule, job); err != nil {
			log.Error().Err(err).Str("schedule", schedule).Msg("Invalid refresh schedule, scheduled evaluation disabled")
		} else {
			sched.Start()
			defer sched.Stop()
		}
	}

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

// runHeadless evaluates one sales report and prints the text report.
// Exit codes: 0 success, 1 failure. An insufficient-data outcome still
// prints the partial report (the aggregates explain the problem) but exits
// non-zero since no comparison was produced.
func runHeadless(cfg *config.Config, inputFile, advDate string, log zerolog.Logger) {
	if advDate == "" {
		log.Fatal().Msg("Headless mode requires -adv-date (the advertising start date)")
	}
	boundary, err := time.Parse(cfg.DateLayout, advDate)
	if err != nil {
		log.Fatal().Err(err).Str("layout", cfg.DateLayout).Msg("Could not parse the advertising start date")
	}

	f, err := os.Open(inputFile)
	if err != nil {
		log.Fatal().Err(err).Str("input", inputFile).Msg("Could not open the sales report")
	}
	defer f.Close()

	service := evaluation.NewService(log)
	result, err := service.Run(context.Background(), evaluation.RunRequest{
		Source: f,
		Input:  inputFile,
		Mapping: sales.ColumnMapping{
			DateColumn:   cfg.DateColumn,
			AmountColumn: cfg.AmountColumn,
			TypeColumn:   cfg.TypeColumn,
			TypeFilter:   cfg.TypeFilter,
		},
		DateLayout:        cfg.DateLayout,
		DecimalComma:      cfg.DecimalComma,
		Boundary:          boundary,
		MovingAverageDays: cfg.MovingAverageDays,
		Simulations:       cfg.Simulations,
	})
	if err != nil {
		var insufficient *evaluation.InsufficientDataError
		if errors.As(err, &insufficient) && result != nil {
			fmt.Print(evaluation.RenderReport(result))
			fmt.Fprintf(os.Stderr, "\n%v\n", err)
			os.Exit(1)
		}
		log.Fatal().Err(err).Msg("Evaluation failed")
	}

	fmt.Print(evaluation.RenderReport(result))
}
