package container

import (
	"fmt"

	"github.com/samber/do"
	"go.uber.org/zap"
)

// LoggerPackage provides the zap logger.
func LoggerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		options := do.MustInvoke[*Options](i)

		switch options.LogFormat {
		case "json":
			return zap.NewProduction()
		case "console":
			return zap.NewDevelopment()
		default:
			return nil, fmt.Errorf("unknown log format %q", options.LogFormat)
		}
	})
}
