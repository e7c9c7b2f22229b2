package main

import (
	"context"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/tadesk/core"
	"github.com/trezcool/tadesk/core/i18n"
	"github.com/trezcool/tadesk/core/user"
	"github.com/trezcool/tadesk/storage/database"
	"github.com/trezcool/tadesk/storage/kv"
	"github.com/trezcool/tadesk/storage/userstore"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	os.Exit(start())
}

func start() int {
	ctx := context.Background()
	conf := core.NewConfig()

	// set up the shared storage
	storage, closeStorage, err := kv.Open(ctx, conf)
	errAndDie(err)
	defer func() { _ = closeStorage() }()

	dict, err := i18n.LoadEmbedded()
	errAndDie(err)
	validate := validator.New()
	translators, err := i18n.NewTranslators(validate, dict)
	errAndDie(err)
	user.InitValidators(validate, translators, dict)

	lang, ok := i18n.Parse(conf.DefaultLanguage)
	if !ok {
		lang = i18n.DefaultCode
	}

	// start CLI
	cli := commandLine{
		usrSvc:   user.NewService(userstore.NewUserRepository(storage), nil /* no welcome email */, dict),
		validate: validate,
		lang:     lang,
		volatile: !kv.IsPersistent(conf.Storage.Engine),
		out:      os.Stdout,
	}

	if database.IsSQL(conf.Storage.Engine) {
		db, err := database.Open(conf)
		errAndDie(err)
		defer db.Close()
		errAndDie(database.Ping(ctx, db))
		errAndDie(database.SetupMigrations(db.DriverName()))
		cli.db = db.DB
	}

	if err = cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		return 1
	}
	return 0
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
