package domain

// BootstrapData describes the initial user created on an empty store.
type BootstrapData struct {
	Username    string
	Password    string
	Email       string
	DisplayName string
}
