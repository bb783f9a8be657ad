// Package logger expone un logger zap único para todo el proceso, con
// scoping por request a través del context.
//
// Inicialización (una vez, en el comando serve):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//
// En services y controllers:
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("Issue"))
//	log.Info("token issued", logger.ClientID(clientID))
package logger
