// Package config provides configuration loading, validation, and management
// for the notification relay. It reads a YAML file through viper, applies
// defaults and NOTIFY_* environment overrides, and validates the result.
package config

import "errors"

// ErrConfiguration wraps every failure to load or validate the configuration.
var ErrConfiguration = errors.New("configuration error")

// Config is the process-wide configuration. It is built once by Load and is
// read-only afterwards; components receive it through their constructors.
type Config struct {
	TelegramBotToken string `mapstructure:"telegram_bot_token" validate:"required"`
	AuthorizedUser   string `mapstructure:"authorized_user"    validate:"required"`
	PUP              string `mapstructure:"pup"                recommended:"required"`
	PUPMail          string `mapstructure:"pup_mail"           validate:"required"`
	OwnMail          string `mapstructure:"own_mail"           validate:"required"`
	OwnMailName      string `mapstructure:"own_mail_nm"        recommended:"required"`
	OwnMailPassword  string `mapstructure:"own_mail_pw"        validate:"required"`
	BCCMail          string `mapstructure:"bcc_mail"           recommended:"required"`
	Salutation       string `mapstructure:"sal_mail"           recommended:"required"`
	Closing          string `mapstructure:"lea_mail"           recommended:"required"`

	// LockoutOnMissingOptional clears AuthorizedUser when any optional key
	// is missing, so the bot refuses every sender until the file is fixed.
	LockoutOnMissingOptional bool `mapstructure:"lockout_on_missing_optional"`

	Logger    LoggerConfig    `mapstructure:"logger"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Bot       BotConfig       `mapstructure:"bot"`
	Messages  MessagesConfig  `mapstructure:"messages"`
	Commands  CommandsConfig  `mapstructure:"commands"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`

	// MissingOptional lists the optional keys absent from the file, in
	// declaration order. Filled by Load.
	MissingOptional []string `mapstructure:"-"`
}

// OptionalKeyHint returns the operator-facing warning for a missing optional key.
func OptionalKeyHint(key string) string {
	if hint, ok := optionalKeyHints[key]; ok {
		return hint
	}
	return "Optional configuration key missing"
}

var optionalKeyHints = map[string]string{
	"pup":         "No PUP specified in YAML",
	"own_mail_nm": "No own E-Mail sender name specified in YAML",
	"bcc_mail":    "No BCC E-Mail specified in YAML",
	"sal_mail":    "No salutation specified in YAML - PUP might not understand the context of your E-Mail without",
	"lea_mail":    "No leave greeting specified in YAML",
}
