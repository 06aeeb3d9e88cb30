// Package logger holds the process-wide zap logger, initialised once in main.
package logger

import "go.uber.org/zap"

var sugar = zap.NewNop().Sugar()

// Init builds the logger for the given APP_ENV ("production" gets the JSON
// encoder, anything else the development console encoder).
func Init(env string) error {
	var (
		l   *zap.Logger
		err error
	)
	if env == "production" {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		return err
	}
	sugar = l.Sugar()
	return nil
}

func L() *zap.SugaredLogger { return sugar }

func Sync() { _ = sugar.Sync() }
