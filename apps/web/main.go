package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	echoweb "github.com/trezcool/tadesk/apps/web/echo"
	"github.com/trezcool/tadesk/core"
	"github.com/trezcool/tadesk/core/i18n"
	"github.com/trezcool/tadesk/core/user"
	emailsvc "github.com/trezcool/tadesk/services/email"
	logsvc "github.com/trezcool/tadesk/services/logger"
	"github.com/trezcool/tadesk/storage/kv"
	"github.com/trezcool/tadesk/storage/userstore"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "WEB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	defer logger.Close()

	// set up the shared storage
	storage, closeStorage, err := kv.Open(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}
	defer func() {
		if err = closeStorage(); err != nil {
			logger.Error("closing storage", err)
		}
	}()

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	dict, err := i18n.LoadEmbedded()
	if err != nil {
		logger.Fatal(fmt.Sprintf("loading dictionary: %v", err), err)
	}
	for _, lang := range i18n.Supported {
		if missing := dict.Missing(lang); len(missing) > 0 {
			logger.Warn(fmt.Sprintf("%s misses %d translations, raw keys will be shown", lang, len(missing)),
				map[string]interface{}{"lang": lang, "keys": missing})
		}
	}

	validate := validator.New()
	translators, err := i18n.NewTranslators(validate, dict)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up validation messages: %v", err), err)
	}
	user.InitValidators(validate, translators, dict)

	core.ParseEmailTemplates(logger)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug || conf.SendgridApiKey == "" {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	usrSvc := user.NewService(userstore.NewUserRepository(storage), mailSvc, dict)

	// =========================================================================
	// Start Web Service

	server := echoweb.NewServer(
		echoweb.ServerDeps{
			Conf:        conf,
			Logger:      logger,
			UserSvc:     usrSvc,
			Validate:    validate,
			Translators: translators,
			Dict:        dict,
			CookieStore: echoweb.NewCookieStore(conf),
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
