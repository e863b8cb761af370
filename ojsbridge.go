package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/wansing/ojsbridge/backend"
	"github.com/wansing/ojsbridge/config"
	"github.com/wansing/ojsbridge/core"
	"github.com/wansing/ojsbridge/logging"
	"github.com/wansing/ojsbridge/ojs"
	"github.com/wansing/ojsbridge/sqldb"
	"github.com/wansing/ojsbridge/sqldb/mysql"
	"github.com/wansing/ojsbridge/sqldb/sqlite3"
	"github.com/wansing/ojsbridge/util"
	"github.com/xo/dburl"
	"golang.org/x/crypto/ssh/terminal"
)

// intList collects repeated int flags.
type intList []int

func (l *intList) String() string {
	return fmt.Sprint(*l)
}

func (l *intList) Set(value string) error {
	ints, err := util.ParseInts(value)
	if err != nil {
		return err
	}
	*l = append(*l, ints...)
	return nil
}

func main() {

	// default FlagSet

	var configPath = flag.String("config", "config/ojsbridge.ini", "read configuration from this ini `file`")
	// Your reverse proxy must not strip the prefix. So if you're using nginx, the "proxy_pass" value should not end with a slash.
	var baseArg = flag.String("base", "", "strip off this `prefix` from every HTTP request and prepend it to every redirect")
	// MySQL: collation should be utf8mb4_unicode_ci
	var dbArg = flag.String("db", "", "sql database url, see github.com/xo/dburl")
	var listenArg = flag.String("listen", "", "serve HTTP content at this `ip:port`")

	// init FlagSet

	var initFlags = flag.NewFlagSet("init", flag.ExitOnError)

	var initConfigPath = initFlags.String("config", "config/ojsbridge.ini", "read configuration from this ini `file`") // copied from above
	var initDBArg = initFlags.String("db", "", "sql database url, see github.com/xo/dburl")
	var journalName = initFlags.String("name", "", "journal `name`")
	var ojsURL = initFlags.String("ojs-url", "", "base `url` of the OJS installation")
	var ojsJID = initFlags.Int("ojs-jid", 0, "journal `id` within the OJS installation")
	var editorEmail = initFlags.String("editor-email", "", "email `address` of the journal editor, who owns the submission documents")
	var editorName = initFlags.String("editor-name", "", "username of the journal editor, if a user has to be created")
	var templates intList
	initFlags.Var(&templates, "template", "accept submissions of this template `id`, can be repeated")

	if len(os.Args) > 1 && os.Args[1] == "init" {
		initFlags.Parse(os.Args[2:])
		*configPath = *initConfigPath
		*dbArg = *initDBArg
	} else {
		flag.Parse()
	}

	// config, flags override

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *baseArg != "" {
		cfg.Base = *baseArg
	}
	if *dbArg != "" {
		cfg.DB = *dbArg
	}
	if *listenArg != "" {
		cfg.Listen = *listenArg
	}

	// logging

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log.Logger = logger
	zerolog.DefaultContextLogger = &logger

	// database

	dbURL, err := dburl.Parse(cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("could not parse database url")
		return
	}

	sqlDB, err := sql.Open(dbURL.Driver, dbURL.DSN)
	if err != nil {
		log.Error().Err(err).Msg("could not open sql database")
		return
	}

	if err = sqlDB.Ping(); err != nil {
		log.Error().Err(err).Msg("could not ping sql database")
		return
	}

	log.Info().Msgf("using database %s", dbURL.Redacted())

	defer func() {
		log.Info().Msg("closing database")
		sqlDB.Close()
	}()

	// base

	var base = strings.Trim(cfg.Base, "/")
	if base != "" {
		base = "/" + base
	}

	// assemble stuff

	dialect, err := sqldb.DialectOf(dbURL.Driver)
	if err != nil {
		log.Error().Err(err).Msg("unknown database backend")
		return
	}

	var sessionStore scs.Store
	switch dbURL.Driver {
	case "mysql":
		sessionStore, err = mysql.NewSessionStore(sqlDB)
	case "sqlite3":
		sessionStore, err = sqlite3.NewSessionStore(sqlDB)
	}
	if err != nil {
		log.Error().Err(err).Msg("could not create session store")
		return
	}

	storage, err := sqldb.New(sqlDB, dialect)
	if err != nil {
		log.Error().Err(err).Msg("could not create tables")
		return
	}

	db := &core.CoreDB{
		DB:               storage,
		Gateway:          ojs.NewClient(cfg.OJSTimeout, cfg.OJSRetries, cfg.OJSRetryDelay, cfg.OJSRate),
		DefaultTemplates: cfg.DefaultTemplates,
		DocumentURL:      cfg.DocumentURL,
		PlaceholderImage: cfg.PlaceholderImage,
		Secret:           cfg.Secret,
		SubmitTimeout:    cfg.SubmitTimeout,
		TokenTTL:         cfg.TokenTTL,
	}
	if err := db.Init(sessionStore, base); err != nil {
		log.Error().Err(err).Msg("could not initialize") // log.Fatal would not run deferred functions
		return
	}

	// init

	if initFlags.Parsed() {
		registerJournal(db, core.Identity{Email: *editorEmail, Username: *editorName}, &core.Journal{
			OJSURL: *ojsURL,
			OJSJID: *ojsJID,
			Name:   *journalName,
		}, templates)
		return
	}

	listen(db, cfg, base)
}

func registerJournal(db *core.CoreDB, editor core.Identity, journal *core.Journal, templates intList) {

	if journal.OJSURL == "" || journal.OJSJID == 0 || journal.Name == "" || editor.Email == "" {
		log.Error().Msg("init requires -name, -ojs-url, -ojs-jid and -editor-email")
		return
	}

	fmt.Printf("OJS gateway key of journal %s: ", journal.Name)
	key, err := terminal.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		log.Error().Err(err).Msg("error reading key")
		return
	}
	journal.OJSKey = strings.TrimSpace(string(key))
	if journal.OJSKey == "" {
		log.Error().Msg("the key must not be empty")
		return
	}

	var tmpls []int // nil means default templates
	if len(templates) > 0 {
		tmpls = templates
	}

	created, err := db.RegisterJournal(context.Background(), editor, journal, tmpls)
	if err != nil {
		log.Error().Err(err).Msg("error registering journal")
		return
	}
	if created {
		log.Info().Int("id", journal.ID).Int("editor", journal.EditorID).Msgf("registered journal %s", journal.Name)
	} else {
		log.Info().Int("id", journal.ID).Msg("journal exists already")
	}
}

func listen(db *core.CoreDB, cfg *config.Config, base string) {

	// sweep

	var sweeper = cron.New()
	if cfg.SweepSchedule != "" {
		var olderThan = 2 * cfg.SubmitTimeout
		_, err := sweeper.AddFunc(cfg.SweepSchedule, func() {
			var ctx = log.Logger.WithContext(context.Background())
			deleted, err := db.SweepPending(ctx, olderThan)
			if err != nil {
				log.Error().Err(err).Msg("error sweeping pending submissions")
				return
			}
			if deleted > 0 {
				log.Warn().Int("deleted", deleted).Msg("swept pending submissions")
			}
		})
		if err != nil {
			log.Error().Err(err).Msg("invalid sweep_schedule")
			return
		}
		sweeper.Start()
	}

	// mux

	var mux = http.NewServeMux()
	util.HandlePrefix(mux, base, backend.NewRouter(db, cfg.AdminKey))

	// listener and listen

	sigintChannel := make(chan os.Signal, 1)

	listener, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		log.Error().Err(err).Msg("error listening")
		return
	}

	log.Info().Msgf("listening to %s", cfg.Listen)

	httpSrv := &http.Server{
		Handler:      logging.Middleware(log.Logger)(db.SessionManager.LoadAndSave(mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.SubmitTimeout + 30*time.Second, // first submissions wait for OJS
	}

	go func() {
		if err := httpSrv.Serve(listener); err != nil {

			// don't panic, we want a graceful shutdown
			if err != http.ErrServerClosed {
				log.Error().Err(err).Msg("error serving")
			}

			// ensure graceful shutdown
			sigintChannel <- os.Interrupt
		}
	}()

	// graceful shutdown

	signal.Notify(sigintChannel, os.Interrupt, syscall.SIGTERM) // SIGINT (Interrupt) or SIGTERM
	<-sigintChannel

	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	httpSrv.Shutdown(ctx) // waits for running handlers, including their compensating deletes

	<-sweeper.Stop().Done()
}
