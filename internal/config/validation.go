package config

// IsAuthorized reports whether username is the configured authorized sender.
// The comparison is exact and case-sensitive. When authorization is disabled
// (empty AuthorizedUser) nobody is authorized, including users without a
// Telegram username.
func (c *Config) IsAuthorized(username string) bool {
	if c.AuthorizedUser == "" {
		return false
	}
	return username == c.AuthorizedUser
}

// Recipients returns the fixed recipient list for notifications.
func (c *Config) Recipients() []string {
	return []string{c.PUPMail}
}
