package main

import (
	"fmt"
	"io"
	logger "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OpenTransitTools/holidaycal/app/calendar-svc/calendarsvc"
	"github.com/OpenTransitTools/holidaycal/business/data/fetchlog"
	"github.com/OpenTransitTools/holidaycal/foundation/database"
	"github.com/OpenTransitTools/holidaycal/foundation/holidayapi"
	"github.com/ardanlabs/conf"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"gopkg.in/natefinch/lumberjack.v2"
)

var build = "develop"

func main() {
	// a missing .env file is fine, settings then come from flags and the environment
	_ = godotenv.Load()

	log := logger.New(os.Stdout, "CALENDAR_SVC : ", logger.LstdFlags|logger.Lmicroseconds|logger.Lshortfile)
	if err := run(log); err != nil {
		log.Printf("main: error: %v", err)
		os.Exit(1)
	}
}

func run(log *logger.Logger) error {
	var cfg struct {
		conf.Version
		Web struct {
			Port            int           `conf:"default:8080"`
			ShutdownTimeout time.Duration `conf:"default:5s"`
		}
		HolidayAPI struct {
			BaseUrl string        `conf:"default:https://date.nager.at"`
			Timeout time.Duration `conf:"default:15s"`
			Source  string        `conf:"default:remote"`
		}
		Calendar struct {
			DefaultCountry string
		}
		NATS struct {
			Url          string
			FetchSubject string `conf:"default:calendar-fetch-outcomes"`
		}
		DB struct {
			Enabled    bool   `conf:"default:false"`
			User       string `conf:"default:postgres"`
			Password   string `conf:"default:postgres,noprint"`
			Host       string `conf:"default:0.0.0.0"`
			Name       string `conf:"default:postgres"`
			DisableTLS bool   `conf:"default:true"`
		}
		Log struct {
			File string
		}
	}
	cfg.Version.SVN = build
	cfg.Version.Desc = "Month and year calendar annotated with public holidays"
	const prefix = "CALENDAR"
	if err := conf.Parse(os.Args[1:], prefix, &cfg); err != nil {
		switch err {
		case conf.ErrHelpWanted:
			usage, err := conf.Usage(prefix, &cfg)
			if err != nil {
				return fmt.Errorf("generating config usage: %w", err)
			}
			fmt.Println(usage)
			return nil
		case conf.ErrVersionWanted:
			version, err := conf.VersionString(prefix, &cfg)
			if err != nil {
				return fmt.Errorf("generating config version: %w", err)
			}
			fmt.Println(version)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Log.File != "" {
		log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		}))
	}

	// =========================================================================
	// App Starting

	log.Printf("main : Started : Application initializing : version %s", build)
	defer log.Println("main: Completed")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Printf("main: Config :\n%v\n", out)

	// =========================================================================
	// Holiday Source

	var source calendarsvc.HolidaySource
	switch cfg.HolidayAPI.Source {
	case "remote":
		log.Printf("main: Using holiday api at %s", cfg.HolidayAPI.BaseUrl)
		source = holidayapi.NewClient(cfg.HolidayAPI.BaseUrl, cfg.HolidayAPI.Timeout)
	case "local":
		log.Println("main: Using local holiday calendar")
		source = calendarsvc.NewLocalHolidaySource()
	default:
		return fmt.Errorf("unknown holiday source %q, expected remote or local", cfg.HolidayAPI.Source)
	}

	// =========================================================================
	// Start Database

	var db *sqlx.DB
	if cfg.DB.Enabled {
		log.Println("main: Initializing database support")
		db, err = database.Open(database.Config{
			User:       cfg.DB.User,
			Password:   cfg.DB.Password,
			Host:       cfg.DB.Host,
			Name:       cfg.DB.Name,
			DisableTLS: cfg.DB.DisableTLS,
		})
		if err != nil {
			return fmt.Errorf("connecting to db: %w", err)
		}
		defer func() {
			log.Printf("main: Database Stopping : %s", cfg.DB.Host)
			err = db.Close()
			if err != nil {
				log.Printf("main: error closing database: %v", err)
			}
		}()
		if err = fetchlog.EnsureSchema(db); err != nil {
			return err
		}
	}

	// =========================================================================
	// Start NATS

	var natsConn *nats.Conn
	if cfg.NATS.Url != "" {
		log.Printf("main: Connecting to NATS at %s", cfg.NATS.Url)
		natsConn, err = nats.Connect(cfg.NATS.Url)
		if err != nil {
			return fmt.Errorf("connecting to nats: %w", err)
		}
		defer natsConn.Close()
	}

	// =========================================================================
	// Start Calendar

	publisher := calendarsvc.MakeFetchOutcomePublisher(log, db, natsConn, cfg.NATS.FetchSubject)
	controller := calendarsvc.NewController(log, source, publisher, time.Now)
	controller.Init()
	if cfg.Calendar.DefaultCountry != "" {
		controller.SelectCountry(cfg.Calendar.DefaultCountry)
	}

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	return calendarsvc.StartServices(log, controller, db, calendarsvc.Conf{
		HttpPort:        cfg.Web.Port,
		ShutdownTimeout: cfg.Web.ShutdownTimeout,
	}, shutdown)
}
