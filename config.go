package translatable

import "github.com/goliatone/go-translatable/internal/runtimeconfig"

var (
	ErrEntitySuffixRequired    = runtimeconfig.ErrEntitySuffixRequired
	ErrEntitySuffixInvalid     = runtimeconfig.ErrEntitySuffixInvalid
	ErrDefaultLocaleInvalid    = runtimeconfig.ErrDefaultLocaleInvalid
	ErrLoggingProviderRequired = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown  = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid     = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid    = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config        = runtimeconfig.Config
	LoggingConfig = runtimeconfig.LoggingConfig
)

// DefaultEntitySuffix names generated types "<Source>Translation".
const DefaultEntitySuffix = runtimeconfig.DefaultEntitySuffix

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
