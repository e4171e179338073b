package config

import "time"

// Default values for configuration
const (
	DefaultConfigPath = "./config.yml"
	EnvPrefix         = "NOTIFY"

	DefaultLogLevel = "info"
	DefaultLogDir   = "./output_logs"

	DefaultSMTPHost    = "smtp.gmail.com"
	DefaultSMTPPort    = 465
	DefaultSMTPTimeout = time.Minute

	DefaultBotWorkers         = 4
	DefaultMaxMessageAge      = 60 * time.Second
	DefaultAttachmentDir      = "./images"
	DefaultDownloadTimeout    = 30 * time.Second
	DefaultLockoutOnMissing   = true
	DefaultSMTPProbeSchedule  = "0 0 */6 * * *"
	DefaultAttachmentSchedule = "0 0 3 * * *"
)

// DefaultMessages are the reply texts used when the file does not override them.
var DefaultMessages = MessagesConfig{
	Welcome:        "Hello! I am listening to all messages.",
	NotAuthorized:  "You are not authorized to use this bot.",
	NoContent:      "Error: No text or media provided. Please include a message text or media.",
	PartialContent: "Notice: Your message only contains text or media, and no email was sent.",
	Sent:           "Your message has been sent to %s",
	SendFailed:     "Error: Failed to send your message. Please try again later.",
}

type defaulter interface {
	SetDefault(key string, value any)
}

// setDefaults registers every key with viper. Keys without a default are
// registered as empty so that NOTIFY_* environment variables reach Unmarshal.
func setDefaults(v defaulter) {
	for _, key := range []string{
		"telegram_bot_token", "authorized_user", "pup", "pup_mail", "own_mail",
		"own_mail_nm", "own_mail_pw", "bcc_mail", "sal_mail", "lea_mail",
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault("lockout_on_missing_optional", DefaultLockoutOnMissing)

	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", false)
	v.SetDefault("logger.dir", DefaultLogDir)

	v.SetDefault("smtp.host", DefaultSMTPHost)
	v.SetDefault("smtp.port", DefaultSMTPPort)
	v.SetDefault("smtp.timeout", DefaultSMTPTimeout)
	v.SetDefault("smtp.insecure_skip_verify", false)

	v.SetDefault("bot.workers", DefaultBotWorkers)
	v.SetDefault("bot.max_message_age", DefaultMaxMessageAge)
	v.SetDefault("bot.attachment_dir", DefaultAttachmentDir)
	v.SetDefault("bot.download_timeout", DefaultDownloadTimeout)

	v.SetDefault("messages.welcome", DefaultMessages.Welcome)
	v.SetDefault("messages.not_authorized", DefaultMessages.NotAuthorized)
	v.SetDefault("messages.no_content", DefaultMessages.NoContent)
	v.SetDefault("messages.partial_content", DefaultMessages.PartialContent)
	v.SetDefault("messages.sent", DefaultMessages.Sent)
	v.SetDefault("messages.send_failed", DefaultMessages.SendFailed)

	v.SetDefault("commands.start", "Start the bot")

	v.SetDefault("metrics.addr", "")

	v.SetDefault("scheduler.tasks.smtp_probe.enabled", false)
	v.SetDefault("scheduler.tasks.smtp_probe.schedule", DefaultSMTPProbeSchedule)
	v.SetDefault("scheduler.tasks.attachment_report.enabled", false)
	v.SetDefault("scheduler.tasks.attachment_report.schedule", DefaultAttachmentSchedule)
}
