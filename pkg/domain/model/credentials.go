package model

// AppCredentials authenticates as a GitHub App installation
type AppCredentials struct {
	AppID          int64
	InstallationID int64
	PrivateKey     []byte `masq:"secret"`
}

// Credentials holds the GitHub credential used for one download action
type Credentials struct {
	Token string `masq:"secret"`
	App   *AppCredentials
}

// IsEmpty reports whether no usable credential is present
func (c *Credentials) IsEmpty() bool {
	if c == nil {
		return true
	}
	if c.Token != "" {
		return false
	}
	return c.App == nil || c.App.AppID == 0 || c.App.InstallationID == 0 || len(c.App.PrivateKey) == 0
}
