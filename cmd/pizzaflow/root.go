package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"pizzaflow/internal/config"
	"pizzaflow/internal/database"
	"pizzaflow/internal/timeutil"
)

var (
	cfgFile string
	logger  zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pizzaflow",
	Short: "Slot capacity and table availability for a pizzeria",
	Long: `pizzaflow books takeaway, delivery and table orders against the opening
calendar, the kitchen capacity of each slot and the occupancy of tables.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()

		output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		logger = zerolog.New(output).With().Timestamp().Logger()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $PIZZAFLOW_CONFIG or configs/config.yaml)")

	rootCmd.AddCommand(serveCmd, slotsCmd, statusCmd, exportCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = os.Getenv("PIZZAFLOW_CONFIG")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// restaurantClock reads the wall clock in the restaurant time zone.
func restaurantClock(cfg *config.Config) (timeutil.Clock, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return func() time.Time { return time.Now().In(loc) }, nil
}

// offline bundles what the one-shot commands read.
type offline struct {
	cfg      *config.Config
	calendar *config.CalendarConfig
	db       *database.DB
	clock    timeutil.Clock
}

func openOffline() (*offline, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	clock, err := restaurantClock(cfg)
	if err != nil {
		return nil, err
	}
	cal, err := config.LoadCalendarConfig(cfg.Calendar.Path)
	if err != nil {
		return nil, fmt.Errorf("load calendar: %w", err)
	}
	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return &offline{cfg: cfg, calendar: cal, db: db, clock: clock}, nil
}
